package store

import (
	"reflect"
	"testing"

	"github.com/talentline/apiserver/types"
)

func TestJobWhere(t *testing.T) {
	remote := true

	tests := []struct {
		name      string
		filter    types.JobFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "empty",
			filter:    types.JobFilter{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "status only",
			filter:    types.JobFilter{Status: types.JobActive},
			wantWhere: " WHERE status = $1",
			wantArgs:  []any{"active"},
		},
		{
			name: "combined",
			filter: types.JobFilter{
				Title:          "go dev",
				EmploymentType: types.EmploymentContract,
				Remote:         &remote,
				Skill:          "Go",
				Status:         types.JobActive,
			},
			wantWhere: " WHERE title ILIKE $1 AND employment_type = $2 AND remote = $3" +
				" AND EXISTS (SELECT 1 FROM jsonb_array_elements_text(skills_required) s WHERE s ILIKE $4)" +
				" AND status = $5",
			wantArgs: []any{"%go dev%", "Contract", true, "Go", "active"},
		},
		{
			name:      "like metacharacters escaped",
			filter:    types.JobFilter{Company: "100%_fun"},
			wantWhere: " WHERE company ILIKE $1",
			wantArgs:  []any{`%100\%\_fun%`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			where, args := jobWhere(tc.filter)
			if where != tc.wantWhere {
				t.Fatalf("where = %q, want %q", where, tc.wantWhere)
			}
			if !reflect.DeepEqual(args, tc.wantArgs) {
				t.Fatalf("args = %#v, want %#v", args, tc.wantArgs)
			}
		})
	}
}
