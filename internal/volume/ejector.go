package volume

import "fmt"

// PolicyKind selects which attached volumes an eject acts on
type PolicyKind int

const (
	PolicyAll PolicyKind = iota
	PolicyExpired
	PolicyTarget
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyAll:
		return "all"
	case PolicyExpired:
		return "expired"
	case PolicyTarget:
		return "target"
	default:
		return fmt.Sprintf("PolicyKind(%d)", int(k))
	}
}

// Policy is a selection criterion for Ejector.Eject
type Policy struct {
	Kind   PolicyKind
	Target string
}

// All selects every managed volume.
func All() Policy { return Policy{Kind: PolicyAll} }

// ExpiredOnly selects volumes whose expiry is at or before now.
func ExpiredOnly() Policy { return Policy{Kind: PolicyExpired} }

// ByTarget selects the volume mounted at, or backed by, target.
func ByTarget(target string) Policy { return Policy{Kind: PolicyTarget, Target: target} }

// Outcome is the result of ejecting a single volume
type Outcome struct {
	Volume  Volume
	Expired bool
	Err     error
}

// Report collects per-volume outcomes of one eject run
type Report struct {
	Outcomes []Outcome
	// Unmatched is set when a ByTarget policy matched nothing.
	Unmatched bool
}

// Failed returns the number of volumes that could not be ejected.
func (r Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Succeeded returns the number of volumes that were ejected.
func (r Report) Succeeded() int {
	return len(r.Outcomes) - r.Failed()
}

// Ejector detaches volumes chosen by a Policy
type Ejector struct {
	scanner *Scanner
	backend DiskBackend
	clock   Clock
	logger  Logger
}

// NewEjector creates a new ejector
func NewEjector(backend DiskBackend, clock Clock, logger Logger) *Ejector {
	if clock == nil {
		clock = SystemClock()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Ejector{
		scanner: NewScanner(backend),
		backend: backend,
		clock:   clock,
		logger:  logger,
	}
}

// Select scans once and returns the volumes policy matches.
func (e *Ejector) Select(policy Policy) ([]Volume, error) {
	volumes, err := e.scanner.Scan()
	if err != nil {
		return nil, err
	}

	now := e.clock.Now()
	var selected []Volume
	for _, v := range volumes {
		switch policy.Kind {
		case PolicyAll:
			selected = append(selected, v)
		case PolicyExpired:
			if v.Expired(now) {
				selected = append(selected, v)
			}
		case PolicyTarget:
			if MatchesTarget(v, policy.Target) {
				selected = append(selected, v)
			}
		default:
			return nil, fmt.Errorf("unknown eject policy: %s", policy.Kind)
		}
	}
	return selected, nil
}

// Eject detaches every volume policy selects. Each volume is attempted
// regardless of earlier failures; the returned error wraps ErrPartialBatch
// when any of them failed. Only a failed scan aborts before any eject.
func (e *Ejector) Eject(policy Policy) (Report, error) {
	selected, err := e.Select(policy)
	if err != nil {
		return Report{}, err
	}

	report := Report{Outcomes: make([]Outcome, 0, len(selected))}
	if policy.Kind == PolicyTarget && len(selected) == 0 {
		report.Unmatched = true
		return report, nil
	}

	now := e.clock.Now()
	for _, v := range selected {
		outcome := Outcome{Volume: v, Expired: v.Expired(now)}
		if outcome.Expired {
			e.logger.Info("Ejecting expired volume %s", v.MountPoint)
		} else {
			e.logger.Info("Ejecting volume %s", v.MountPoint)
		}
		if err := e.backend.Eject(ejectTarget(v)); err != nil {
			outcome.Err = err
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	if failed := report.Failed(); failed > 0 {
		return report, fmt.Errorf("%w: %d of %d", ErrPartialBatch, failed, len(report.Outcomes))
	}
	return report, nil
}

// ejectTarget is the handle passed to the backend: the mount point, or the
// device of a volume that is open but not mounted.
func ejectTarget(v Volume) string {
	if v.MountPoint == "" {
		return v.Device
	}
	return v.MountPoint
}
