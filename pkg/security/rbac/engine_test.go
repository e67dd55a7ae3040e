// Copyright © 2025 kindguard authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package rbac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{input: "parent", want: RoleParent},
		{input: "teacher", want: RoleTeacher},
		{input: "admin", want: RoleAdmin},
		{input: "ADMIN", want: RoleAdmin},
		{input: "  Teacher ", want: RoleTeacher},
		{input: "superuser", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_Satisfies(t *testing.T) {
	tests := []struct {
		name     string
		actor    Role
		required Role
		want     bool
	}{
		{name: "parent_meets_parent", actor: RoleParent, required: RoleParent, want: true},
		{name: "parent_below_teacher", actor: RoleParent, required: RoleTeacher, want: false},
		{name: "parent_below_admin", actor: RoleParent, required: RoleAdmin, want: false},
		{name: "teacher_covers_parent", actor: RoleTeacher, required: RoleParent, want: true},
		{name: "teacher_below_admin", actor: RoleTeacher, required: RoleAdmin, want: false},
		{name: "admin_covers_all", actor: RoleAdmin, required: RoleParent, want: true},
		{name: "unknown_satisfies_nothing", actor: Role("ghost"), required: RoleParent, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.actor.Satisfies(tt.required))
		})
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		actor    Role
		actorID  string
		required Role
		ownerID  string
		wantErr  error
	}{
		{
			name:     "parent_hits_admin_endpoint",
			actor:    RoleParent,
			actorID:  "42",
			required: RoleAdmin,
			wantErr:  ErrInsufficientRole,
		},
		{
			name:     "parent_reads_own_record",
			actor:    RoleParent,
			actorID:  "42",
			required: RoleParent,
			ownerID:  "42",
		},
		{
			name:     "parent_reads_other_record",
			actor:    RoleParent,
			actorID:  "42",
			required: RoleParent,
			ownerID:  "43",
			wantErr:  ErrAccessDenied,
		},
		{
			name:     "admin_reads_other_record",
			actor:    RoleAdmin,
			actorID:  "1",
			required: RoleParent,
			ownerID:  "43",
		},
		{
			name:     "teacher_on_unowned_resource",
			actor:    RoleTeacher,
			actorID:  "9",
			required: RoleTeacher,
			ownerID:  "",
		},
		{
			name:     "vertical_checked_before_horizontal",
			actor:    RoleParent,
			actorID:  "42",
			required: RoleTeacher,
			ownerID:  "42",
			wantErr:  ErrInsufficientRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.actorID, tt.required, tt.ownerID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckRolePayload(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]interface{}
		wantErr bool
	}{
		{name: "role_field", body: map[string]interface{}{"role": "admin"}, wantErr: true},
		{name: "role_field_cased", body: map[string]interface{}{"Role": "admin"}, wantErr: true},
		{name: "is_admin_camel", body: map[string]interface{}{"isAdmin": true}, wantErr: true},
		{name: "is_admin_snake", body: map[string]interface{}{"is_admin": true}, wantErr: true},
		{name: "benign_profile_update", body: map[string]interface{}{"nickname": "x", "phone": "123"}, wantErr: false},
		{name: "empty", body: map[string]interface{}{}, wantErr: false},
		{name: "nil", body: nil, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRolePayload(tt.body)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPrivilegeEscalation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckRolePayload_NoAdminExemption(t *testing.T) {
	// Even an admin's own profile update may not smuggle a role change.
	err := CheckRolePayload(map[string]interface{}{"role": "admin"})
	assert.ErrorIs(t, err, ErrPrivilegeEscalation)
}

func TestIsStaleCache(t *testing.T) {
	assert.True(t, IsStaleCache(time.Time{}, time.Minute))
	assert.True(t, IsStaleCache(time.Now().Add(-2*time.Minute), time.Minute))
	assert.False(t, IsStaleCache(time.Now(), time.Minute))
}
