package module

import (
	"testing"

	"swearjar/internal/modkit"
	"swearjar/internal/platform/config"

	"swearjar/internal/services/bridge/domain"
)

func TestNew_BulkModeExposesWorkerAndNoRegistrar(t *testing.T) {
	t.Setenv("CORE_BRIDGE_MODE", string(domain.ModeBulk))
	t.Setenv("CORE_BRIDGE_CLIENTS", "2")
	t.Setenv("CORE_BRIDGE_WORKERS", "2")

	m := New(modkit.Deps{Cfg: config.New()})
	ports, ok := m.Ports().(Ports)
	if !ok {
		t.Fatalf("expected Ports, got %T", m.Ports())
	}
	if ports.Worker == nil {
		t.Fatalf("expected a non-nil Worker port")
	}
	if ports.Registrar != nil {
		t.Fatalf("expected no Registrar in bulk mode")
	}
	if m.Name() != "bridge" {
		t.Fatalf("unexpected module name %q", m.Name())
	}
}

func TestNew_DispatchModeExposesRegistrar(t *testing.T) {
	t.Setenv("CORE_BRIDGE_MODE", string(domain.ModeDispatch))
	t.Setenv("CORE_BRIDGE_CLIENTS", "1")
	t.Setenv("CORE_BRIDGE_WORKERS", "1")

	m := New(modkit.Deps{Cfg: config.New()})
	ports := m.Ports().(Ports)
	if ports.Registrar == nil {
		t.Fatalf("expected a Registrar in dispatch mode")
	}
}
