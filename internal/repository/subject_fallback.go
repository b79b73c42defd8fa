package repository

import (
	"time"

	"github.com/noah-isme/subject-catalog-api/internal/models"
)

// FallbackSubjects returns the sample catalog served while the document
// store is unreachable. Identifiers carry no store prefix, so none of these
// records report as persisted.
func FallbackSubjects(now time.Time) []models.Subject {
	createdAt := now.UTC().Format(time.RFC3339)
	return []models.Subject{
		{
			ID:              "1",
			Name:            "CPCS-203",
			Description:     "Introduction to differential and integral calculus. Topics include limits, derivatives, applications of differentiation, integrals, and the fundamental theorem of calculus. Essential for STEM majors.",
			SlideLink:       "https://example.com/calculus-slides",
			TestBankLink:    "https://example.com/calculus-tests",
			TelegramChannel: "https://t.me/calculus_channel",
			Category:        models.CategoryCS,
			CreatedAt:       createdAt,
		},
		{
			ID:              "2",
			Name:            "Introduction to Psychology",
			Description:     "Explore the fundamentals of human behavior and mental processes. Learn about perception, cognition, emotion, personality, and psychological disorders. Perfect for understanding human nature.",
			SlideLink:       "https://example.com/psychology-slides",
			TestBankLink:    "https://example.com/psychology-tests",
			TelegramChannel: "https://t.me/psychology_channel",
			Category:        models.CategoryIS,
			CreatedAt:       createdAt,
		},
		{
			ID:              "3",
			Name:            "IT-101",
			Description:     "Introduction to Information Technology. Learn about computer systems, networks, and modern IT infrastructure.",
			SlideLink:       "https://example.com/it-slides",
			TestBankLink:    "https://example.com/it-tests",
			TelegramChannel: "https://t.me/it_channel",
			Category:        models.CategoryIT,
			CreatedAt:       createdAt,
		},
		{
			ID:           "4",
			Name:         "Academic Writing",
			Description:  "Learn essential academic writing skills for all disciplines. This course covers research methods, citation styles, and effective communication techniques applicable to any field of study.",
			SlideLink:    "https://example.com/writing-slides",
			TestBankLink: "https://example.com/writing-tests",
			Category:     models.CategoryAll,
			CreatedAt:    createdAt,
		},
	}
}
