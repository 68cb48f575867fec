package tui

import (
	"slices"
	"testing"

	"github.com/charmbracelet/bubbles/key"
)

func TestDefaultKeyMap_AllBindingsDefined(t *testing.T) {
	km := DefaultKeyMap()

	bindings := []struct {
		name    string
		binding key.Binding
	}{
		{"Quit", km.Quit},
		{"Pause", km.Pause},
		{"Reset", km.Reset},
		{"Back", km.Back},
		{"Rerender", km.Rerender},
		{"Backend", km.Backend},
		{"Compare", km.Compare},
		{"Save", km.Save},
		{"ZoomIn", km.ZoomIn},
		{"ZoomOut", km.ZoomOut},
		{"Up", km.Up},
		{"Down", km.Down},
		{"Left", km.Left},
		{"Right", km.Right},
	}

	for _, b := range bindings {
		t.Run(b.name, func(t *testing.T) {
			if !b.binding.Enabled() {
				t.Errorf("expected %s binding to be enabled", b.name)
			}
			if len(b.binding.Keys()) == 0 {
				t.Errorf("expected %s binding to have at least one key", b.name)
			}
		})
	}
}

func TestDefaultKeyMap_QuitKeys(t *testing.T) {
	keys := DefaultKeyMap().Quit.Keys()
	for _, want := range []string{"q", "ctrl+c"} {
		if !slices.Contains(keys, want) {
			t.Errorf("expected Quit binding to include %q", want)
		}
	}
}

func TestDefaultKeyMap_NoSharedKeys(t *testing.T) {
	km := DefaultKeyMap()
	all := []key.Binding{
		km.Quit, km.Pause, km.Reset, km.Back, km.Rerender, km.Backend, km.Compare,
		km.Save, km.ZoomIn, km.ZoomOut, km.Up, km.Down, km.Left, km.Right,
	}
	seen := map[string]int{}
	for i, b := range all {
		for _, k := range b.Keys() {
			if prev, ok := seen[k]; ok {
				t.Errorf("key %q bound by bindings %d and %d", k, prev, i)
			}
			seen[k] = i
		}
	}
}
