package sipstat

import "testing"

func TestParseProductVersion(t *testing.T) {
	tests := []struct {
		input   string
		want    OSVersion
		wantErr bool
	}{
		{"10.11.6", OSVersion{Major: "10", Minor: "11"}, false},
		{"10.11", OSVersion{Major: "10", Minor: "11"}, false},
		{"13.4.1", OSVersion{Major: "13", Minor: "4"}, false},
		{" 10.12.0 ", OSVersion{Major: "10", Minor: "12"}, false},
		{"10", OSVersion{}, true},
		{"", OSVersion{}, true},
		{"..", OSVersion{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseProductVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseProductVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseProductVersion(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestHostSupportsCSR(t *testing.T) {
	tests := []struct {
		major string
		minor string
		want  bool
	}{
		{"10", "11", true},
		{"10", "12", true},
		{"10", "15", true},
		{"10", "10", false},
		{"10", "9", false},
		{"9", "11", false},
		{"11", "0", false},
		{"10", "eleven", false},
		{"10", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.major+"."+tt.minor, func(t *testing.T) {
			got := hostSupportsCSR(OSVersion{Major: tt.major, Minor: tt.minor})
			if got != tt.want {
				t.Errorf("hostSupportsCSR(%s.%s) = %v, want %v", tt.major, tt.minor, got, tt.want)
			}
		})
	}
}

func TestGateVersion(t *testing.T) {
	t.Run("single supported record", func(t *testing.T) {
		v, reason, ok := gateVersion([]OSVersion{{Major: "10", Minor: "11"}})
		if !ok {
			t.Fatalf("gate denied: %s", reason)
		}
		if v.Major != "10" || v.Minor != "11" {
			t.Errorf("gateVersion() = %+v, want 10.11", v)
		}
	})

	t.Run("no records fails closed", func(t *testing.T) {
		_, reason, ok := gateVersion(nil)
		if ok {
			t.Fatal("gate passed with zero records")
		}
		if reason == "" {
			t.Error("expected a denial reason")
		}
	})

	t.Run("multiple records fail closed", func(t *testing.T) {
		versions := []OSVersion{
			{Major: "10", Minor: "11"},
			{Major: "10", Minor: "12"},
		}
		if _, _, ok := gateVersion(versions); ok {
			t.Error("gate passed with two records")
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		_, reason, ok := gateVersion([]OSVersion{{Major: "10", Minor: "10"}})
		if ok {
			t.Fatal("gate passed on 10.10")
		}
		if reason == "" {
			t.Error("expected a denial reason")
		}
	})
}
