package xanthus

import "testing"

func TestParseConfigNestedSection(t *testing.T) {
	ht := &HotTuning{config: DefaultConfig()}

	data := map[string]interface{}{
		"xanthus": map[string]interface{}{
			"spin_limit": 128,
		},
	}

	got := ht.parseConfig(data)
	if got.SpinLimit != 128 {
		t.Errorf("expected SpinLimit 128, got %d", got.SpinLimit)
	}
}

func TestParseConfigFlatSection(t *testing.T) {
	ht := &HotTuning{config: DefaultConfig()}

	data := map[string]interface{}{
		"spin_limit": float64(256),
	}

	got := ht.parseConfig(data)
	if got.SpinLimit != 256 {
		t.Errorf("expected SpinLimit 256, got %d", got.SpinLimit)
	}
}

func TestParseConfigIgnoresUnknownSections(t *testing.T) {
	ht := &HotTuning{config: DefaultConfig()}
	original := ht.config

	got := ht.parseConfig(map[string]interface{}{"unrelated": "value"})
	if got.SpinLimit != original.SpinLimit {
		t.Errorf("expected unchanged config, got SpinLimit %d", got.SpinLimit)
	}
}

func TestParseSpinLimitRejectsNegative(t *testing.T) {
	if _, ok := parseSpinLimit(-1); ok {
		t.Error("expected negative int to be rejected")
	}
	if _, ok := parseSpinLimit(float64(-5)); ok {
		t.Error("expected negative float64 to be rejected")
	}
	if _, ok := parseSpinLimit("nonsense"); ok {
		t.Error("expected non-numeric type to be rejected")
	}
}

func TestHandleConfigChangeInvokesOnReload(t *testing.T) {
	var gotOld, gotNew Config
	called := false

	ht := &HotTuning{
		config: DefaultConfig(),
		OnReload: func(oldConfig, newConfig Config) {
			called = true
			gotOld = oldConfig
			gotNew = newConfig
		},
	}

	ht.handleConfigChange(map[string]interface{}{"spin_limit": 32})

	if !called {
		t.Fatal("expected OnReload to be invoked")
	}
	if gotOld.SpinLimit != DefaultSpinLimit {
		t.Errorf("expected old SpinLimit %d, got %d", DefaultSpinLimit, gotOld.SpinLimit)
	}
	if gotNew.SpinLimit != 32 {
		t.Errorf("expected new SpinLimit 32, got %d", gotNew.SpinLimit)
	}
	if ht.GetConfig().SpinLimit != 32 {
		t.Errorf("expected GetConfig to reflect the reload, got %d", ht.GetConfig().SpinLimit)
	}
}
