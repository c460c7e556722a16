package repository

import (
	"context"

	"lms_backend/internal/model"

	"gorm.io/gorm"
)

// DeleteLessonChildren removes every row hanging off the given lessons:
// quiz attempts, questions, quizzes, videos and progress. The lessons
// themselves are left in place. Must run inside a transaction.
func DeleteLessonChildren(ctx context.Context, tx *gorm.DB, lessonIDs []string) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	db := tx.WithContext(ctx)

	quizIDs := db.Model(&model.Quiz{}).Select("id").Where("lesson_id IN ?", lessonIDs)
	if err := db.Where("quiz_id IN (?)", quizIDs).Delete(&model.QuizAttempt{}).Error; err != nil {
		return err
	}
	if err := db.Where("quiz_id IN (?)", quizIDs).Delete(&model.Question{}).Error; err != nil {
		return err
	}
	if err := db.Where("lesson_id IN ?", lessonIDs).Delete(&model.Quiz{}).Error; err != nil {
		return err
	}
	if err := db.Where("lesson_id IN ?", lessonIDs).Delete(&model.Video{}).Error; err != nil {
		return err
	}
	return db.Where("lesson_id IN ?", lessonIDs).Delete(&model.Progress{}).Error
}

// DeleteQuizChildren removes the attempts and questions of one quiz.
func DeleteQuizChildren(ctx context.Context, tx *gorm.DB, quizID string) error {
	db := tx.WithContext(ctx)
	if err := db.Where("quiz_id = ?", quizID).Delete(&model.QuizAttempt{}).Error; err != nil {
		return err
	}
	return db.Where("quiz_id = ?", quizID).Delete(&model.Question{}).Error
}

// DeleteQuiz removes a quiz row; gorm.ErrRecordNotFound when absent.
func DeleteQuiz(ctx context.Context, tx *gorm.DB, quizID string) error {
	return deleteByID(ctx, tx, &model.Quiz{}, quizID)
}
