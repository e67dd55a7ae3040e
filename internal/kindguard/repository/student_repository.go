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
	"errors"

	"gorm.io/gorm"

	"github.com/yyup/kindguard/internal/kindguard/model"
)

// ErrStudentNotFound indicates no student matched the lookup.
var ErrStudentNotFound = errors.New("repository: student not found")

type StudentRepository interface {
	Search(ctx context.Context, name string, parentID int64) ([]model.Student, error)
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	Delete(ctx context.Context, id int64) error
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// Search lists students matching a name fragment. The fragment is bound as a
// parameter, never interpolated; the injection screen upstream is a
// compensating control, not the protection. parentID zero means unscoped
// (staff view); non-zero restricts to one parent's children.
func (r *studentRepository) Search(ctx context.Context, name string, parentID int64) ([]model.Student, error) {
	query := r.db.WithContext(ctx).Model(&model.Student{})
	if name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}
	if parentID != 0 {
		query = query.Where("parent_id = ?", parentID)
	}

	var students []model.Student
	if err := query.Order("id").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&student).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&model.Student{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStudentNotFound
	}
	return result.Error
}
