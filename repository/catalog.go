package repository

import (
	"context"

	"yogastore-backend/models"
	"yogastore-backend/store"
)

type CatalogRepository struct {
	st store.Store
}

func NewCatalogRepository(st store.Store) *CatalogRepository {
	return &CatalogRepository{st: st}
}

func (r *CatalogRepository) With(tx store.Store) *CatalogRepository {
	return &CatalogRepository{st: tx}
}

// ListCourses returns courses in store order.
func (r *CatalogRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	docs, err := r.st.GetCollection(ctx, models.CoursesCollection)
	if err != nil {
		return nil, err
	}
	out := make([]models.Course, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.CourseFromDocument(doc))
	}
	return out, nil
}

func (r *CatalogRepository) FindCourse(ctx context.Context, id int64) (models.Course, error) {
	doc, err := findOneByID(ctx, r.st, models.CoursesCollection, id)
	if err != nil {
		return models.Course{}, err
	}
	return models.CourseFromDocument(doc), nil
}

func (r *CatalogRepository) ListTeachers(ctx context.Context) ([]models.Teacher, error) {
	docs, err := r.st.GetCollection(ctx, models.TeachersCollection)
	if err != nil {
		return nil, err
	}
	out := make([]models.Teacher, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.TeacherFromDocument(doc))
	}
	return out, nil
}

func (r *CatalogRepository) FindTeacher(ctx context.Context, id int64) (models.Teacher, error) {
	doc, err := findOneByID(ctx, r.st, models.TeachersCollection, id)
	if err != nil {
		return models.Teacher{}, err
	}
	return models.TeacherFromDocument(doc), nil
}
