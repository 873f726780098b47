package placeid

import "testing"

func TestFromOSM(t *testing.T) {
	tests := []struct {
		osmType, osmID, want string
	}{
		{"relation", "435514", "r435514"},
		{"Way", "42", "w42"},
		{" node ", " 7 ", "n7"},
		{"", "7", ""},
		{"node", "", ""},
	}
	for _, tt := range tests {
		if got := FromOSM(tt.osmType, tt.osmID); got != tt.want {
			t.Errorf("FromOSM(%q, %q) = %q, want %q", tt.osmType, tt.osmID, got, tt.want)
		}
	}
}

func TestFromContent(t *testing.T) {
	id1 := FromContent("Praha", 14.4378, 50.0755)
	id2 := FromContent("Praha", 14.4378, 50.0755)
	if id1 != id2 {
		t.Errorf("same content should give same ID: %q vs %q", id1, id2)
	}
	if len(id1) != 36 {
		t.Errorf("expected a UUID, got %q", id1)
	}
	if id1 == FromContent("Praha", 14.4379, 50.0755) {
		t.Error("different coordinates should give different IDs")
	}
}

func TestFor(t *testing.T) {
	if got := For("way", "9", "x", 0, 0); got != "w9" {
		t.Errorf("got %q", got)
	}
	if got := For("", "", "x", 0, 0); got != FromContent("x", 0, 0) {
		t.Errorf("got %q", got)
	}
}
