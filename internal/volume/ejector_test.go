package volume

import (
	"errors"
	"testing"
)

func TestEjectExpiredScenario(t *testing.T) {
	backend := newFakeBackend(t.TempDir())
	clock := &fixedClock{now: day("2024-01-01")}
	creator := NewCreator(backend, &fakeMarker{}, clock, nil)

	v, err := creator.Create(Sized(100, 7), []byte("pw"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := v.Expiry.Format("2006-01-02"); got != "2024-01-08" {
		t.Fatalf("expiry = %s, want 2024-01-08", got)
	}

	ejector := NewEjector(backend, clock, nil)

	clock.now = day("2024-01-07")
	report, err := ejector.Eject(ExpiredOnly())
	if err != nil {
		t.Fatalf("Eject() on 2024-01-07 error = %v", err)
	}
	if len(report.Outcomes) != 0 {
		t.Fatalf("Eject() on 2024-01-07 ejected %d volumes, want 0", len(report.Outcomes))
	}

	clock.now = day("2024-01-09")
	report, err = ejector.Eject(ExpiredOnly())
	if err != nil {
		t.Fatalf("Eject() on 2024-01-09 error = %v", err)
	}
	if len(report.Outcomes) != 1 || report.Outcomes[0].Volume.MountPoint != v.MountPoint {
		t.Fatalf("Eject() on 2024-01-09 outcomes = %+v, want %s", report.Outcomes, v.MountPoint)
	}
	if !report.Outcomes[0].Expired {
		t.Error("outcome not flagged as expired")
	}
	if len(backend.attached) != 0 {
		t.Errorf("volume still attached: %v", backend.attached)
	}
}

func TestEjectExpiredSelection(t *testing.T) {
	backend := newFakeBackend(t.TempDir())
	backend.attach("/run/ephem/past", "", "exp_20240101")
	backend.attach("/run/ephem/future", "", "exp_20991231")
	backend.attach("/run/ephem/named", "", "Notes")
	backend.attach("/run/ephem/lookalike", "", "exp_2024")

	ejector := NewEjector(backend, &fixedClock{now: day("2024-06-01")}, nil)
	report, err := ejector.Eject(ExpiredOnly())
	if err != nil {
		t.Fatalf("Eject() error = %v", err)
	}
	if len(report.Outcomes) != 1 || report.Outcomes[0].Volume.MountPoint != "/run/ephem/past" {
		t.Fatalf("outcomes = %+v, want only /run/ephem/past", report.Outcomes)
	}
	for _, mount := range []string{"/run/ephem/future", "/run/ephem/named", "/run/ephem/lookalike"} {
		if _, ok := backend.attached[mount]; !ok {
			t.Errorf("%s was ejected", mount)
		}
	}
}

func TestEjectExpiredEmpty(t *testing.T) {
	backend := newFakeBackend(t.TempDir())
	backend.attach("/run/ephem/future", "", "exp_20991231")

	report, err := NewEjector(backend, &fixedClock{now: day("2024-01-01")}, nil).Eject(ExpiredOnly())
	if err != nil {
		t.Fatalf("Eject() error = %v", err)
	}
	if len(report.Outcomes) != 0 || report.Unmatched {
		t.Errorf("report = %+v, want empty", report)
	}
	if len(backend.ejected) != 0 {
		t.Errorf("ejected = %v, want none", backend.ejected)
	}
}

func TestEjectAllBatchIndependence(t *testing.T) {
	backend := newFakeBackend(t.TempDir())
	backend.attach("/run/ephem/a", "", "exp_20240101")
	backend.attach("/run/ephem/b", "", "Notes")
	backend.attach("/run/ephem/c", "", "exp_20991231")
	backend.failEject["/run/ephem/b"] = errDetach

	report, err := NewEjector(backend, &fixedClock{now: day("2024-01-01")}, nil).Eject(All())
	if !errors.Is(err, ErrPartialBatch) {
		t.Fatalf("Eject() error = %v, want ErrPartialBatch", err)
	}
	if report.Failed() != 1 || report.Succeeded() != 2 {
		t.Fatalf("failed=%d succeeded=%d, want 1 and 2", report.Failed(), report.Succeeded())
	}
	for _, o := range report.Outcomes {
		if o.Volume.MountPoint == "/run/ephem/b" {
			if !errors.Is(o.Err, errDetach) {
				t.Errorf("outcome for b = %v, want errDetach", o.Err)
			}
		} else if o.Err != nil {
			t.Errorf("outcome for %s = %v, want success", o.Volume.MountPoint, o.Err)
		}
	}
	if len(backend.ejected) != 2 {
		t.Errorf("ejected = %v, want a and c", backend.ejected)
	}
}

func TestEjectByTarget(t *testing.T) {
	backend := newFakeBackend(t.TempDir())
	backend.attach("/run/ephem/a", "/var/tmp/a.img", "exp_20240101")
	backend.attach("/run/ephem/b", "/var/tmp/b.img", "Notes")
	ejector := NewEjector(backend, &fixedClock{now: day("2024-01-01")}, nil)

	report, err := ejector.Eject(ByTarget("/var/tmp/b.img"))
	if err != nil {
		t.Fatalf("Eject() error = %v", err)
	}
	if report.Unmatched || len(report.Outcomes) != 1 || report.Outcomes[0].Volume.MountPoint != "/run/ephem/b" {
		t.Fatalf("report = %+v, want /run/ephem/b", report)
	}

	report, err = ejector.Eject(ByTarget("/run/ephem/a"))
	if err != nil {
		t.Fatalf("Eject() error = %v", err)
	}
	if len(report.Outcomes) != 1 || report.Outcomes[0].Volume.MountPoint != "/run/ephem/a" {
		t.Fatalf("report = %+v, want /run/ephem/a", report)
	}
}

func TestEjectByTargetNoMatch(t *testing.T) {
	backend := newFakeBackend(t.TempDir())
	backend.attach("/run/ephem/a", "", "exp_20240101")

	report, err := NewEjector(backend, &fixedClock{now: day("2024-01-01")}, nil).Eject(ByTarget("/run/ephem/zzz"))
	if err != nil {
		t.Fatalf("Eject() error = %v, want nil", err)
	}
	if !report.Unmatched || len(report.Outcomes) != 0 {
		t.Errorf("report = %+v, want unmatched", report)
	}
	if len(backend.ejected) != 0 {
		t.Errorf("ejected = %v, want none", backend.ejected)
	}
}

func TestEjectScanFailureAborts(t *testing.T) {
	backend := newFakeBackend(t.TempDir())
	backend.attach("/run/ephem/a", "", "exp_20240101")
	backend.listErr = ErrBackendUnavailable

	_, err := NewEjector(backend, &fixedClock{now: day("2024-06-01")}, nil).Eject(All())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("Eject() error = %v, want ErrBackendUnavailable", err)
	}
	if len(backend.ejected) != 0 {
		t.Errorf("ejected = %v after failed scan", backend.ejected)
	}
}

func TestEjectVanishedVolumeIsSingleFailure(t *testing.T) {
	backend := newFakeBackend(t.TempDir())
	backend.attach("/run/ephem/a", "", "exp_20240101")
	backend.attach("/run/ephem/b", "", "exp_20240101")
	// b disappears between scan and eject
	backend.failEject["/run/ephem/b"] = errors.New("not mounted")

	report, err := NewEjector(backend, &fixedClock{now: day("2024-06-01")}, nil).Eject(ExpiredOnly())
	if !errors.Is(err, ErrPartialBatch) {
		t.Fatalf("Eject() error = %v, want ErrPartialBatch", err)
	}
	if report.Failed() != 1 || report.Succeeded() != 1 {
		t.Errorf("failed=%d succeeded=%d, want 1 and 1", report.Failed(), report.Succeeded())
	}
}

func TestPolicyKindString(t *testing.T) {
	tests := map[PolicyKind]string{
		PolicyAll:      "all",
		PolicyExpired:  "expired",
		PolicyTarget:   "target",
		PolicyKind(42): "PolicyKind(42)",
	}
	for kind, want := range tests {
		if got := kind.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestEjectUnmountedVolumeByDevice(t *testing.T) {
	backend := newFakeBackend(t.TempDir())
	device := "/dev/mapper/ephem_exp_20240101_0badf00d"
	backend.attached[device] = Attachment{Device: device, Label: "exp_20240101"}
	ejector := NewEjector(backend, &fixedClock{now: day("2024-01-02")}, nil)

	report, err := ejector.Eject(ByTarget(device))
	if err != nil {
		t.Fatalf("Eject() error = %v", err)
	}
	if len(report.Outcomes) != 1 || !report.Outcomes[0].Expired {
		t.Fatalf("report = %+v, want one expired outcome", report)
	}
	if len(backend.ejected) != 1 || backend.ejected[0] != device {
		t.Errorf("ejected = %v, want %s", backend.ejected, device)
	}
}
