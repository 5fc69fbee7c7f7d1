package aggregate

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/aitool/sleuth/internal/backend"
)

func stampedRows(tag string, stamps []int) []backend.LogRow {
	rows := make([]backend.LogRow, len(stamps))
	for i, s := range stamps {
		rows[i] = backend.LogRow{
			Timestamp: fmt.Sprintf("2024-01-01 %08d", s),
			Tag:       tag,
			Message:   fmt.Sprintf("%s-%d", tag, i),
		}
	}
	return rows
}

// For any rows already merged and any page arriving out of order, the merged
// sequence stays sorted and keeps every row.
func TestMergeSortedKeepsOrderForAnyArrival(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("merge of sorted and unsorted rows is sorted and complete", prop.ForAll(
		func(existing, incoming []int) bool {
			base := stampedRows("base", existing)
			SortRows(base)
			merged := MergeSorted(base, stampedRows("new", incoming))
			if len(merged) != len(existing)+len(incoming) {
				t.Logf("len = %d, want %d", len(merged), len(existing)+len(incoming))
				return false
			}
			return IsSorted(merged)
		},
		gen.SliceOf(gen.IntRange(0, 5000)),
		gen.SliceOf(gen.IntRange(0, 5000)),
	))

	properties.TestingRun(t)
}

// For any split of rows into files and pages, and any order in which the
// incremental pages are applied, the session ends sorted with every row.
func TestSessionSortedForAnyPageLayout(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("collect yields sorted complete rows", prop.ForAll(
		func(stamps []int, files, perPage int, seed int64) bool {
			src := newFakeSource()
			rnd := rand.New(rand.NewSource(seed))
			layout := make(map[string][][]backend.LogRow, files)
			ids := make([]string, files)
			for i := range ids {
				ids[i] = fmt.Sprintf("f%d", i)
			}
			for i, s := range stamps {
				id := ids[rnd.Intn(files)]
				pages := layout[id]
				if len(pages) == 0 || len(pages[len(pages)-1]) >= perPage {
					pages = append(pages, nil)
				}
				row := backend.LogRow{
					Timestamp: fmt.Sprintf("2024-01-01 %08d", s),
					Tag:       id,
					Message:   fmt.Sprintf("%s-%d", id, i),
				}
				pages[len(pages)-1] = append(pages[len(pages)-1], row)
				layout[id] = pages
			}
			for _, id := range ids {
				src.add(id, backend.StatusParsed, layout[id]...)
			}

			s, failures := Collect(context.Background(), NewFetcher(src, Options{Strategy: Incremental}), ids, Filter{}, true)
			if len(failures) != 0 {
				t.Logf("unexpected failures: %v", failures)
				return false
			}
			if s.Len() != len(stamps) || s.HasMore() {
				t.Logf("rows = %d hasMore=%v, want %d rows", s.Len(), s.HasMore(), len(stamps))
				return false
			}
			return IsSorted(s.Rows())
		},
		gen.SliceOf(gen.IntRange(0, 100000)),
		gen.IntRange(1, 5),
		gen.IntRange(1, 7),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
