package volume

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// fakeBackend keeps attachments in memory. Mount points and images live
// under root so importer tests can extract real files into them.
type fakeBackend struct {
	root      string
	attached  map[string]Attachment
	images    map[string]bool
	next      int
	listErr   error
	createErr error
	noMount   bool
	failEject map[string]error
	ejected   []string
	removed   []string
	passwords map[string]string
}

func newFakeBackend(root string) *fakeBackend {
	return &fakeBackend{
		root:      root,
		attached:  make(map[string]Attachment),
		images:    make(map[string]bool),
		failEject: make(map[string]error),
		passwords: make(map[string]string),
	}
}

func (b *fakeBackend) Create(req CreateRequest) (Attachment, error) {
	if b.createErr != nil {
		return Attachment{}, b.createErr
	}
	b.next++
	image := req.ImagePath
	label := req.Label
	if image == "" {
		image = filepath.Join(b.root, fmt.Sprintf("img-%d.img", b.next))
		b.images[image] = true
		b.passwords[image] = string(req.Password)
	} else {
		if !b.images[image] {
			return Attachment{}, fmt.Errorf("%w: no such image %s", ErrBackendRejected, image)
		}
		if b.passwords[image] != string(req.Password) {
			return Attachment{}, fmt.Errorf("%w: no key available with this passphrase", ErrBackendRejected)
		}
		label = "exp_20240108"
	}
	if b.noMount {
		return Attachment{ImagePath: image, Label: label}, nil
	}

	mount := filepath.Join(b.root, fmt.Sprintf("mnt-%d", b.next))
	if err := os.MkdirAll(mount, 0o700); err != nil {
		return Attachment{}, err
	}
	a := Attachment{MountPoint: mount, ImagePath: image, Label: label}
	b.attached[mount] = a
	return a, nil
}

func (b *fakeBackend) ListAttached() ([]Attachment, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	var out []Attachment
	for _, a := range b.attached {
		if a.ImagePath != "" && !b.images[a.ImagePath] {
			a.ImagePath = ""
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MountPoint > out[j].MountPoint })
	return out, nil
}

func (b *fakeBackend) Eject(mountPoint string) error {
	if err, ok := b.failEject[mountPoint]; ok {
		return err
	}
	if _, ok := b.attached[mountPoint]; !ok {
		return fmt.Errorf("not mounted: %s", mountPoint)
	}
	delete(b.attached, mountPoint)
	b.ejected = append(b.ejected, mountPoint)
	return nil
}

func (b *fakeBackend) RemoveImage(path string) error {
	if !b.images[path] {
		return fmt.Errorf("no such image: %s", path)
	}
	delete(b.images, path)
	b.removed = append(b.removed, path)
	return nil
}

// attach registers a pre-existing attachment directly.
func (b *fakeBackend) attach(mount, image, label string) {
	b.attached[mount] = Attachment{MountPoint: mount, ImagePath: image, Label: label}
	if image != "" {
		b.images[image] = true
	}
}

type fakeMarker struct {
	err    error
	marked []string
}

func (m *fakeMarker) Exclude(mountPoint string) error {
	if m.err != nil {
		return m.err
	}
	m.marked = append(m.marked, mountPoint)
	return nil
}

// fakeArchiver extracts a fixed file tree when given the right password.
type fakeArchiver struct {
	password string
	files    map[string]string
	size     uint64
	sizeErr  error
}

func (a *fakeArchiver) UncompressedSize(path string) (uint64, error) {
	if a.sizeErr != nil {
		return 0, a.sizeErr
	}
	return a.size, nil
}

func (a *fakeArchiver) Extract(path string, password []byte, dest string) error {
	if string(password) != a.password {
		return ErrWrongPassword
	}
	for name, content := range a.files {
		target := filepath.Join(dest, name)
		if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
			return err
		}
		if err := os.WriteFile(target, []byte(content), 0o600); err != nil {
			return err
		}
	}
	return nil
}

var errDetach = errors.New("device busy")
