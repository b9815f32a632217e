package inject

import "testing"

func TestPasteChord(t *testing.T) {
	tests := []struct {
		name     string
		shortcut string
		window   string
		wantKey  string
		wantMods []string
	}{
		{"forced ctrl+v", "ctrl+v", "alacritty", "v", []string{"ctrl"}},
		{"forced terminal chord", "ctrl+shift+v", "firefox", "v", []string{"ctrl", "shift"}},
		{"auto in terminal", "auto", "kitty", "v", []string{"ctrl", "shift"}},
		{"auto in browser", "auto", "firefox", "v", []string{"ctrl"}},
		{"auto with unknown window", "auto", "", "v", []string{"ctrl"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inj := NewInjector("paste", tt.shortcut)
			inj.activeWindow = func() string { return tt.window }

			key, mods := inj.pasteChord()
			if key != tt.wantKey {
				t.Errorf("key = %q, want %q", key, tt.wantKey)
			}
			if len(mods) != len(tt.wantMods) {
				t.Fatalf("mods = %v, want %v", mods, tt.wantMods)
			}
			for i, m := range tt.wantMods {
				if mods[i] != m {
					t.Errorf("mods[%d] = %v, want %q", i, mods[i], m)
				}
			}
		})
	}
}

func TestFocusedWindowIsTerminal(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"kitty", true},
		{"Alacritty", true},
		{" xterm ", true},
		{"firefox", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := focusedWindowIsTerminal(tt.title); got != tt.want {
			t.Errorf("focusedWindowIsTerminal(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestInjectEmptyTextIsNoOp(t *testing.T) {
	inj := NewInjector("paste", "auto")
	if err := inj.Inject(""); err != nil {
		t.Errorf("Inject(\"\") error = %v", err)
	}
}
