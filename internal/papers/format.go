package papers

import (
	"fmt"
	"strings"

	"github.com/paper-nest/backend/internal/mathtext"
	"github.com/paper-nest/backend/internal/models"
	"github.com/paper-nest/backend/internal/storage"
)

const blobSeparator = " | "

// Format numbers questions 1..n in input order and renders the compact
// question/answer blobs plus the structured list used for printing.
func (s *Service) Format(questions []models.Question) models.FormattedPaper {
	paper := models.FormattedPaper{Questions: make([]models.FormattedQuestion, 0, len(questions))}
	qParts := make([]string, 0, len(questions))
	aParts := make([]string, 0, len(questions))

	for i, q := range questions {
		fq := s.formatQuestion(i+1, q)
		paper.Questions = append(paper.Questions, fq)
		qParts = append(qParts, fmt.Sprintf("Q%d: %s", fq.Number, fq.Question))
		aParts = append(aParts, fmt.Sprintf("A%d: %s", fq.Number, fq.Answer))
	}

	paper.QuestionsBlob = strings.Join(qParts, blobSeparator)
	paper.AnswersBlob = strings.Join(aParts, blobSeparator)
	return paper
}

func (s *Service) formatQuestion(n int, q models.Question) models.FormattedQuestion {
	options := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		options = append(options, mathtext.Normalize(o))
	}

	marks := q.Marks
	if marks <= 0 {
		marks = 1
	}

	return models.FormattedQuestion{
		Number:         n,
		Question:       mathtext.Normalize(q.QuestionText),
		Answer:         mathtext.Normalize(q.Answer),
		Options:        options,
		ID:             q.ID,
		Chapter:        q.Chapter,
		Marks:          marks,
		Solution:       q.Solution,
		QuestionImages: s.imageRefs(q, q.QuestionImages),
		OptionImages:   s.imageRefs(q, q.OptionImages),
		SolutionImages: s.imageRefs(q, q.SolutionImages),
		CompositeKey:   q.CompositeKey(),
	}
}

func (s *Service) imageRefs(q models.Question, files []string) []models.ImageRef {
	refs := make([]models.ImageRef, 0, len(files))
	for _, f := range files {
		refs = append(refs, models.ImageRef{
			Filename: f,
			URL: s.resolver.ImageURL(storage.ImageKey{
				Exam:          q.Provenance.Exam,
				Standard:      q.Provenance.Standard,
				Subject:       q.Provenance.Subject,
				ChapterFolder: storage.ChapterFolder(q.Chapter),
				Filename:      f,
			}),
		})
	}
	return refs
}
