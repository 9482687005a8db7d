// Package view computes what the note list renders
// Package view 计算笔记列表的展示投影
package view

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/haierkeys/fast-note-local/internal/domain"
	"github.com/haierkeys/fast-note-local/pkg/timex"
)

// TimestampLayout day/month/year hour:minute
const TimestampLayout = "02/01/2006 15:04"

// Project filters and orders notes for display. The input is never modified.
// Project 过滤并排序笔记，不修改输入
func Project(notes []domain.Note, favoritesOnly bool, sortBy domain.SortBy) []domain.Note {
	out := make([]domain.Note, 0, len(notes))
	for _, n := range notes {
		if favoritesOnly && !n.IsFavorite {
			continue
		}
		out = append(out, n)
	}

	switch sortBy {
	case domain.SortByTitle:
		slices.SortStableFunc(out, func(a, b domain.Note) int {
			return cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	case domain.SortByFavoriteThenDate:
		slices.SortStableFunc(out, func(a, b domain.Note) int {
			if a.IsFavorite != b.IsFavorite {
				if a.IsFavorite {
					return -1
				}
				return 1
			}
			return byDateDesc(a, b)
		})
	default:
		slices.SortStableFunc(out, byDateDesc)
	}
	return out
}

func byDateDesc(a, b domain.Note) int {
	return cmp.Compare(b.UpdatedAt, a.UpdatedAt)
}

// FormatTimestamp renders epoch milliseconds in loc (nil means Local)
func FormatTimestamp(ms int64, loc *time.Location) string {
	return timex.FromMilli(ms, loc).Format(TimestampLayout)
}
