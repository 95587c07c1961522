package app

// LaunchMode is the closed set of ways an application can be started.
type LaunchMode int

// launch modes
const (
	// LaunchNone provisions the application without starting anything.
	LaunchNone LaunchMode = iota
	// LaunchWeb registers a static site with the gateway, no process.
	LaunchWeb
	// LaunchRun spawns the run command as a background process.
	LaunchRun
)

// IsolationMode is the process confinement strategy for LaunchRun.
type IsolationMode int

// isolation modes
const (
	IsolationNoneMode IsolationMode = iota
	IsolationChroot
	IsolationSystemd
)

// isolation type names as written in the manifest
const (
	IsolationNoneName    = "none"
	IsolationChrootName  = "chroot"
	IsolationSystemdName = "systemd"
)

// DatabaseKind is the closed set of provisionable database types.
type DatabaseKind int

// database kinds
const (
	DatabaseUnknown DatabaseKind = iota
	DatabasePostgres
	DatabaseMySQL
	DatabaseSQLite
)

// LaunchPlan decides how the application starts. Web publishing takes
// precedence over a run command when a manifest declares both.
func (m *Manifest) LaunchPlan() LaunchMode {
	switch {
	case m.Web != nil:
		return LaunchWeb
	case m.Run != nil:
		return LaunchRun
	default:
		return LaunchNone
	}
}

// IsolationPlan maps the manifest isolation section to a mode. Unknown
// values fall back to no isolation, matching how the manifest treats
// optional sections.
func (m *Manifest) IsolationPlan() IsolationMode {
	if m.Isolation == nil {
		return IsolationNoneMode
	}
	switch m.Isolation.Type {
	case IsolationSystemdName:
		return IsolationSystemd
	case IsolationChrootName:
		return IsolationChroot
	default:
		return IsolationNoneMode
	}
}

// Kind maps the declared database type to its provisioner kind.
func (d *DatabaseSection) Kind() DatabaseKind {
	switch d.Type {
	case "postgres":
		return DatabasePostgres
	case "mysql":
		return DatabaseMySQL
	case "sqlite":
		return DatabaseSQLite
	default:
		return DatabaseUnknown
	}
}

// String returns the manifest name of the isolation mode.
func (i IsolationMode) String() string {
	switch i {
	case IsolationSystemd:
		return IsolationSystemdName
	case IsolationChroot:
		return IsolationChrootName
	default:
		return IsolationNoneName
	}
}
