package service

import (
	"context"
	"time"

	"lms_backend/internal/aggregate"
	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"gorm.io/gorm"
)

// FieldLessonCount is the derived course field computed on read.
const FieldLessonCount = "lessonCount"

// courseColumns maps selectable course fields onto stored columns.
var courseColumns = map[string]string{
	"id":          "id",
	"title":       "title",
	"description": "description",
	"startDate":   "start_date",
	"endDate":     "end_date",
	"teacherId":   "teacher_id",
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
}

type CourseService struct {
	DB             *gorm.DB
	CourseRepo     *repository.CourseRepository
	LessonRepo     *repository.LessonRepository
	UserRepo       *repository.UserRepository
	EnrollmentRepo *repository.EnrollmentRepository
	ProgressRepo   *repository.ProgressRepository
}

func NewCourseService(
	db *gorm.DB,
	courseRepo *repository.CourseRepository,
	lessonRepo *repository.LessonRepository,
	userRepo *repository.UserRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	progressRepo *repository.ProgressRepository,
) *CourseService {
	return &CourseService{
		DB:             db,
		CourseRepo:     courseRepo,
		LessonRepo:     lessonRepo,
		UserRepo:       userRepo,
		EnrollmentRepo: enrollmentRepo,
		ProgressRepo:   progressRepo,
	}
}

type CourseInput struct {
	Title       *string    `json:"title" binding:"omitempty,max=255"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	TeacherID   *string    `json:"teacherId"`
}

func validateDates(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return util.NewValidationError("startDate must not be after endDate")
	}
	return nil
}

// checkTeacher requires the referenced user to hold the TEACHER role.
func (s *CourseService) checkTeacher(ctx context.Context, teacherID *string) error {
	if teacherID == nil {
		return nil
	}
	user, err := s.UserRepo.FindByID(ctx, *teacherID)
	if err != nil {
		return notFound(err, "teacher %s not found", *teacherID)
	}
	if !user.HasRole(model.RoleTeacher) {
		return util.NewValidationError("user %s is not a teacher", *teacherID)
	}
	return nil
}

func (s *CourseService) Create(ctx context.Context, p util.Payload) (*model.Course, error) {
	var in CourseInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	if err := validateDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}
	if err := s.checkTeacher(ctx, in.TeacherID); err != nil {
		return nil, err
	}

	course := &model.Course{
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		TeacherID:   in.TeacherID,
	}
	if err := s.CourseRepo.Create(ctx, course); err != nil {
		return nil, err
	}
	return s.Get(ctx, course.ID)
}

// Get loads one course with its teacher and lesson count.
func (s *CourseService) Get(ctx context.Context, id string) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "course %s not found", id)
	}
	counts, err := s.LessonRepo.CountByCourseIDs(ctx, []string{course.ID})
	if err != nil {
		return nil, storeFailure(err)
	}
	course.LessonCount = counts[course.ID]
	return course, nil
}

// List returns a page of courses. With a selection only the requested
// columns are loaded and lessonCount is computed only when asked for.
func (s *CourseService) List(ctx context.Context, f repository.CourseFilter, sel aggregate.Selection) ([]model.Course, int64, error) {
	cols, err := sel.Columns(courseColumns)
	if err != nil {
		return nil, 0, util.WrapValidation(err)
	}
	f.Columns = cols

	courses, total, err := s.CourseRepo.List(ctx, f)
	if err != nil {
		return nil, 0, storeFailure(err)
	}
	if !sel.Wants(FieldLessonCount) || len(courses) == 0 {
		return courses, total, nil
	}

	ids := make([]string, len(courses))
	for i := range courses {
		ids[i] = courses[i].ID
	}
	counts, err := s.LessonRepo.CountByCourseIDs(ctx, ids)
	if err != nil {
		return nil, 0, storeFailure(err)
	}
	for i := range courses {
		courses[i].LessonCount = counts[courses[i].ID]
	}
	return courses, total, nil
}

func (s *CourseService) Update(ctx context.Context, id string, p util.Payload) (*model.Course, error) {
	var in CourseInput
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	current, err := s.CourseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "course %s not found", id)
	}

	start, end := current.StartDate, current.EndDate
	if p.Has("startDate") {
		start = in.StartDate
	}
	if p.Has("endDate") {
		end = in.EndDate
	}
	if err := validateDates(start, end); err != nil {
		return nil, err
	}
	if p.Has("teacherId") {
		if err := s.checkTeacher(ctx, in.TeacherID); err != nil {
			return nil, err
		}
	}

	pt := newPatch(p)
	setNullable(pt, "title", "title", in.Title)
	setNullable(pt, "description", "description", in.Description)
	setNullable(pt, "startDate", "start_date", in.StartDate)
	setNullable(pt, "endDate", "end_date", in.EndDate)
	setNullable(pt, "teacherId", "teacher_id", in.TeacherID)
	if err := s.CourseRepo.UpdateFields(ctx, id, pt.fields); err != nil {
		return nil, notFound(err, "course %s not found", id)
	}
	return s.Get(ctx, id)
}

// Delete removes a course together with its lessons and everything below
// them, and its enrollments.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lessonIDs, err := s.LessonRepo.WithTx(tx).IDsByCourse(ctx, id)
		if err != nil {
			return err
		}
		if err := repository.DeleteLessonChildren(ctx, tx, lessonIDs); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Where("course_id = ?", id).Delete(&model.Lesson{}).Error; err != nil {
			return err
		}
		if err := s.EnrollmentRepo.WithTx(tx).DeleteByCourse(ctx, id); err != nil {
			return err
		}
		if err := s.CourseRepo.WithTx(tx).Delete(ctx, id); err != nil {
			return notFound(err, "course %s not found", id)
		}
		return nil
	})
}

// Statistics summarizes enrollment progress for one course.
func (s *CourseService) Statistics(ctx context.Context, id string) (*aggregate.CourseStatistics, error) {
	found, err := s.CourseRepo.Exists(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if !found {
		return nil, util.NewNotFoundError("course %s not found", id)
	}

	enrollments, _, err := s.EnrollmentRepo.List(ctx, repository.EnrollmentFilter{CourseID: id})
	if err != nil {
		return nil, storeFailure(err)
	}
	if err := attachProgress(ctx, s.LessonRepo, s.ProgressRepo, enrollments); err != nil {
		return nil, err
	}

	percents := make([]int, len(enrollments))
	for i, e := range enrollments {
		percents[i] = e.Progress
	}
	stats := aggregate.Summarize(percents)
	return &stats, nil
}
