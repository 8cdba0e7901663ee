package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardiseName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Science", "Science"},
		{"trims", "  Science  ", "Science"},
		{"collapses whitespace", "Computer \t  Science", "Computer Science"},
		{"strips control characters", "Sci\x01ence", "Science"},
		{"strips markup", "<b>Science</b>", "Science"},
		{"strips plain span", "<span>Science</span>", "Science"},
		{"keeps language span", `<span lang="fr" class="multilang">Sciences</span>`, `<span lang="fr" class="multilang">Sciences</span>`},
		{"keeps closing span with lang open", `<span lang="de">Wissenschaft</span>`, `<span lang="de">Wissenschaft</span>`},
		{"keeps lang tags", `<lang lang="en">Science</lang>`, `<lang lang="en">Science</lang>`},
		{"mixed", "  <i>Modern</i>   History ", "Modern History"},
		{"empties to nothing", "<b></b>", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StandardiseName(tc.in))
		})
	}
}
