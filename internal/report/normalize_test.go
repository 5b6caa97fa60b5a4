package report

import "testing"

func TestNormalizeClientText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Transportes São João LTDA", "TRANSPORTES SAO JOAO"},
		{"ACME  Logística   S.A.", "ACME LOGISTICA"},
		{"acme logistica s/a", "ACME LOGISTICA"},
		{"Comércio Ágil EIRELI", "COMERCIO AGIL"},
		{"  Padaria do Zé ME ", "PADARIA DO ZE"},
		{"ACME CIA LTDA", "ACME"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeClientText(c.in); got != c.want {
			t.Errorf("NormalizeClientText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClientMatches(t *testing.T) {
	cases := []struct {
		requested, candidate string
		want                 bool
	}{
		{"ACME", "ACME Logística LTDA", true},
		{"Acme Logística", "ACME", true},
		{"São João", "Transportes SAO JOAO S.A.", true},
		{"ACME", "Outra Empresa", false},
		{"", "ACME", false},
		{"ACME", "", false},
	}
	for _, c := range cases {
		if got := ClientMatches(c.requested, c.candidate); got != c.want {
			t.Errorf("ClientMatches(%q, %q) = %v, want %v", c.requested, c.candidate, got, c.want)
		}
	}
}
