package dao

import (
	"strings"

	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/internal/model"
)

// ToDomain converts a stored row into a domain note; a NULL body becomes ""
// ToDomain 将数据库行转换为领域模型
func ToDomain(m *model.Note) *domain.Note {
	if m == nil {
		return nil
	}
	n := &domain.Note{
		ID:         m.ID,
		Title:      m.Title,
		Author:     m.Author,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
		IsFavorite: m.IsFavorite,
	}
	if m.Body != nil {
		n.Body = *m.Body
	}
	return n
}

// ToDomainList 批量转换
func ToDomainList(rows []*model.Note) []domain.Note {
	out := make([]domain.Note, 0, len(rows))
	for _, r := range rows {
		out = append(out, *ToDomain(r))
	}
	return out
}

// ToEntity converts a domain note into a row; a blank body is stored as NULL
// ToEntity 将领域模型转换为数据库行，空白正文存为 NULL
func ToEntity(n *domain.Note) *model.Note {
	if n == nil {
		return nil
	}
	return &model.Note{
		ID:         n.ID,
		Title:      n.Title,
		Body:       normalizeBody(n.Body),
		Author:     n.Author,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
		IsFavorite: n.IsFavorite,
	}
}

func normalizeBody(body string) *string {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	return &body
}
