package sipstat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParsePolicy(t *testing.T) {
	input := `full_protection: true
flags:
  allow_untrusted_kexts: false
  allow_task_for_pid: true
`

	p, err := ParsePolicy(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParsePolicy() error = %v", err)
	}

	if !p.FullProtection {
		t.Error("FullProtection = false, want true")
	}
	if len(p.Flags) != 2 {
		t.Fatalf("got %d flags, want 2", len(p.Flags))
	}
	if p.Flags["allow_untrusted_kexts"] {
		t.Error("allow_untrusted_kexts = true, want false")
	}
	if !p.Flags["allow_task_for_pid"] {
		t.Error("allow_task_for_pid = false, want true")
	}
}

func TestParsePolicy_UnknownFieldRejected(t *testing.T) {
	input := `full_protection: true
flagz:
  allow_untrusted_kexts: false
`

	if _, err := ParsePolicy(strings.NewReader(input)); err == nil {
		t.Error("expected error for unknown document field")
	}
}

func TestPolicy_Requirements(t *testing.T) {
	t.Run("catalogue order", func(t *testing.T) {
		p := &Policy{
			FullProtection: true,
			Flags: map[string]bool{
				// Listed out of catalogue order on purpose.
				"allow_apple_internal":  false,
				"allow_untrusted_kexts": false,
			},
		}

		reqs, err := p.Requirements()
		if err != nil {
			t.Fatalf("Requirements() error = %v", err)
		}
		if len(reqs) != 3 {
			t.Fatalf("got %d requirements, want 3", len(reqs))
		}
		if reqs[0] != RequireFullProtection {
			t.Error("first requirement should be full protection")
		}

		first, ok := reqs[1].(FlagRequirement)
		if !ok || first.Flag != FlagUntrustedKexts {
			t.Errorf("reqs[1] = %+v, want allow_untrusted_kexts", reqs[1])
		}
		second, ok := reqs[2].(FlagRequirement)
		if !ok || second.Flag != FlagAppleInternal {
			t.Errorf("reqs[2] = %+v, want allow_apple_internal", reqs[2])
		}
	})

	t.Run("unknown flag name rejected", func(t *testing.T) {
		p := &Policy{Flags: map[string]bool{"allow_everything": false}}
		if _, err := p.Requirements(); err == nil {
			t.Error("expected error for unknown flag name")
		}
	})

	t.Run("empty policy yields no requirements", func(t *testing.T) {
		p := &Policy{}
		reqs, err := p.Requirements()
		if err != nil {
			t.Fatalf("Requirements() error = %v", err)
		}
		if len(reqs) != 0 {
			t.Errorf("got %d requirements, want 0", len(reqs))
		}
	})
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := `full_protection: true
flags:
  allow_kernel_debugger: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if !p.FullProtection {
		t.Error("FullProtection = false, want true")
	}

	if _, err := LoadPolicy(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPolicy_EndToEnd(t *testing.T) {
	p := &Policy{
		FullProtection: true,
		Flags:          map[string]bool{"allow_untrusted_kexts": false},
	}
	reqs, err := p.Requirements()
	if err != nil {
		t.Fatalf("Requirements() error = %v", err)
	}

	if err := CheckStatus(enforcedStatus(t), reqs...); err != nil {
		t.Errorf("CheckStatus() = %v, want nil on an enforced host", err)
	}
	if err := CheckStatus(relaxedStatus(t, FlagUntrustedKexts), reqs...); err == nil {
		t.Error("CheckStatus() = nil, want failure on a relaxed host")
	}
}
