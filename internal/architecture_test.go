package internal

import (
	"testing"

	"github.com/kcmvp/archunit"
)

func TestArchitecture(t *testing.T) {
	core := archunit.Packages("core", []string{".../internal/intent", ".../internal/control"})
	shell := archunit.Packages("shell", []string{".../internal/config", ".../internal/report", ".../internal/discovery"})

	// Parsing and orchestration must not reach into config, output or discovery.
	if err := core.ShouldNotReferLayers(shell); err != nil {
		t.Errorf("Architecture violation: core depends on shell: %v", err)
	}
}

func TestCorePackagesPresent(t *testing.T) {
	control := archunit.Packages("control", []string{".../internal/control"})
	if len(control.Packages()) == 0 {
		t.Error("No control package found")
	}
}
