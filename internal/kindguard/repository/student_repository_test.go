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

package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestStudentRepository_Search_BindsNameAsParameter(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	// The fragment reaches the driver as a bound argument, quotes included.
	rows := sqlmock.NewRows([]string{"id", "name", "class_name", "parent_id"}).
		AddRow(int64(7), "Li Hua", "sunflower", int64(42))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `students` WHERE name LIKE ? AND parent_id = ? ORDER BY id")).
		WithArgs("%O'Malley%", int64(42)).
		WillReturnRows(rows)

	repo := NewStudentRepository(db)
	students, err := repo.Search(context.Background(), "O'Malley", 42)
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, "Li Hua", students[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_Search_Unscoped(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "name", "class_name", "parent_id"}).
		AddRow(int64(1), "a", "c1", int64(10)).
		AddRow(int64(2), "b", "c2", int64(11))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `students` ORDER BY id")).
		WillReturnRows(rows)

	repo := NewStudentRepository(db)
	students, err := repo.Search(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_GetByID_NotFound(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `students` WHERE id = ?")).
		WithArgs(int64(999), 1).
		WillReturnError(gorm.ErrRecordNotFound)

	repo := NewStudentRepository(db)
	student, err := repo.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrStudentNotFound)
	assert.Nil(t, student)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepository_Delete(t *testing.T) {
	tests := []struct {
		name        string
		id          int64
		rows        int64
		expectError error
	}{
		{name: "deleted", id: 7, rows: 1},
		{name: "missing", id: 999, rows: 0, expectError: ErrStudentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `students` WHERE `students`.`id` = ?")).
				WithArgs(tt.id).
				WillReturnResult(sqlmock.NewResult(0, tt.rows))
			mock.ExpectCommit()

			repo := NewStudentRepository(db)
			err := repo.Delete(context.Background(), tt.id)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
