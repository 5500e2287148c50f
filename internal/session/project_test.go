package session

import "testing"

func TestDemangleProjectName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"-Users-alex-code-dotfiles", "dotfiles"},
		{"-Users-alex-code-papers-detection", "papers/detection"},
		{"-Users-alex-projects-web-app", "web/app"},
		{"-home-sam-writing-essays", "essays"},
		{"-Users-alex-misc-tool", "tool"},
		{"plain", "plain"},
	}
	for _, tc := range cases {
		if got := DemangleProjectName(tc.in); got != tc.want {
			t.Errorf("DemangleProjectName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
