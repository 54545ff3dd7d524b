// services/catalog_service.go
package services

import (
	"context"
	"strings"

	"yogastore-backend/models"
	"yogastore-backend/repository"
	"yogastore-backend/store"

	"github.com/shopspring/decimal"
)

// ClassFilter narrows the catalog to public or private classes. A class is
// private when its title or instructor name mentions "private".
type ClassFilter string

const (
	ClassAll     ClassFilter = "all"
	ClassPublic  ClassFilter = "public"
	ClassPrivate ClassFilter = "private"
)

func ParseClassFilter(s string) (ClassFilter, error) {
	switch ClassFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClassAll:
		return ClassAll, nil
	case ClassPublic:
		return ClassPublic, nil
	case ClassPrivate:
		return ClassPrivate, nil
	}
	return "", invalid("class", "class must be one of all, public, private")
}

type CatalogQuery struct {
	Search string
	Class  ClassFilter
}

type CourseView struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Instructor  string          `json:"instructor"`
	Duration    int64           `json:"duration"`
	Level       string          `json:"level"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

func (v CourseView) Private() bool {
	return containsFold(v.Title, "private") || containsFold(v.Instructor, "private")
}

func (v CourseView) matches(q CatalogQuery) bool {
	switch q.Class {
	case ClassPublic:
		if v.Private() {
			return false
		}
	case ClassPrivate:
		if !v.Private() {
			return false
		}
	}
	search := strings.TrimSpace(q.Search)
	if search == "" {
		return true
	}
	return containsFold(v.Title, search) ||
		containsFold(v.Instructor, search) ||
		containsFold(v.Level, search) ||
		containsFold(v.Description, search)
}

type CourseDetail struct {
	CourseView
	Teacher models.Teacher `json:"teacher"`
	Owned   bool           `json:"owned"`
}

type CatalogService struct {
	catalog *repository.CatalogRepository
	grants  *repository.GrantRepository
}

func NewCatalogService(st store.Store) *CatalogService {
	return &CatalogService{
		catalog: repository.NewCatalogRepository(st),
		grants:  repository.NewGrantRepository(st),
	}
}

// Discover lists the courses the customer has not bought yet.
func (s *CatalogService) Discover(ctx context.Context, customerID int64, q CatalogQuery) ([]CourseView, error) {
	return s.list(ctx, customerID, q, false)
}

// MyCourses lists the courses the customer owns.
func (s *CatalogService) MyCourses(ctx context.Context, customerID int64, q CatalogQuery) ([]CourseView, error) {
	return s.list(ctx, customerID, q, true)
}

func (s *CatalogService) list(ctx context.Context, customerID int64, q CatalogQuery, owned bool) ([]CourseView, error) {
	granted, err := s.grants.OwnedCourseIDs(ctx, customerID)
	if err != nil {
		return nil, storeFailure(ErrStoreUnavailable, err)
	}
	courses, err := s.catalog.ListCourses(ctx)
	if err != nil {
		return nil, storeFailure(ErrStoreUnavailable, err)
	}

	names := s.teacherNames(ctx)
	out := make([]CourseView, 0, len(courses))
	for _, c := range courses {
		if granted[c.ID] != owned {
			continue
		}
		v := newCourseView(c, names)
		if v.matches(q) {
			out = append(out, v)
		}
	}
	return out, nil
}

// CourseDetail returns one course with its teacher. customerID may be zero
// for anonymous callers.
func (s *CatalogService) CourseDetail(ctx context.Context, customerID, courseID int64) (*CourseDetail, error) {
	course, err := s.catalog.FindCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	teacher, err := s.catalog.FindTeacher(ctx, course.TeacherID)
	if err != nil {
		teacher = models.Teacher{ID: course.TeacherID, Name: models.PlaceholderTeacherName(course.TeacherID)}
	}
	detail := &CourseDetail{
		CourseView: newCourseView(course, map[int64]string{teacher.ID: teacher.Name}),
		Teacher:    teacher,
	}
	if customerID != 0 {
		if _, err := s.grants.Find(ctx, customerID, courseID); err == nil {
			detail.Owned = true
		}
	}
	return detail, nil
}

func (s *CatalogService) Teachers(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.catalog.ListTeachers(ctx)
	if err != nil {
		return nil, storeFailure(ErrStoreUnavailable, err)
	}
	return teachers, nil
}

func (s *CatalogService) Teacher(ctx context.Context, id int64) (models.Teacher, error) {
	return s.catalog.FindTeacher(ctx, id)
}

// teacherNames loads every teacher once. A failed load leaves the map empty
// and courses fall back to placeholder names.
func (s *CatalogService) teacherNames(ctx context.Context) map[int64]string {
	names := map[int64]string{}
	teachers, err := s.catalog.ListTeachers(ctx)
	if err != nil {
		return names
	}
	for _, t := range teachers {
		names[t.ID] = t.Name
	}
	return names
}

func newCourseView(c models.Course, teacherNames map[int64]string) CourseView {
	instructor, ok := teacherNames[c.TeacherID]
	if !ok || instructor == "" {
		instructor = models.PlaceholderTeacherName(c.TeacherID)
	}
	return CourseView{
		ID:          c.ID,
		Title:       c.Name,
		Instructor:  instructor,
		Duration:    c.Duration,
		Level:       c.Category,
		Price:       c.Price,
		Description: c.Description,
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

