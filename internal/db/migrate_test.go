package db

import "testing"

func TestPgx5URL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"postgres://u:p@localhost:5432/jobs?sslmode=disable", "pgx5://u:p@localhost:5432/jobs?sslmode=disable"},
		{"postgresql://u@db/jobs", "pgx5://u@db/jobs"},
		{"pgx5://u@db/jobs", "pgx5://u@db/jobs"},
	}
	for _, c := range cases {
		if got := pgx5URL(c.in); got != c.want {
			t.Errorf("pgx5URL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
