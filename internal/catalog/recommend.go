package catalog

import (
	"sort"
	"strings"

	"secure-library/internal/domain"
)

// Recommendation model weights.
const (
	weightCategory   = 0.4
	weightAuthor     = 0.3
	weightPopularity = 0.2
	weightRecency    = 0.1

	// similarity components
	similarityCategory    = 0.4
	similarityAuthor      = 0.3
	similarityDescription = 0.3

	// popularity saturates at this plaintext size
	popularityCeiling = 10 * 1024 * 1024
)

// Recommender scores catalog entries against a user's reading history.
type Recommender struct {
	catalog domain.Catalog
	history domain.HistoryRepository
}

// NewRecommender creates a recommender over the catalog and history store
func NewRecommender(catalog domain.Catalog, history domain.HistoryRepository) *Recommender {
	return &Recommender{catalog: catalog, history: history}
}

type scoredBook struct {
	book  *domain.Book
	score float64
}

// Personalized returns up to limit books ranked by affinity with the
// user's viewing history.
func (r *Recommender) Personalized(userID string, limit int) ([]*domain.Book, error) {
	prefs, err := r.history.Preferences(userID)
	if err != nil {
		return nil, err
	}

	results := make([]scoredBook, 0, len(r.catalog))
	for _, book := range r.catalog {
		results = append(results, scoredBook{book: book, score: bookScore(book, prefs)})
	}

	sortScored(results)
	return takeBooks(results, limit), nil
}

// Similar returns up to limit books most similar to the given one.
func (r *Recommender) Similar(bookID string, limit int) ([]*domain.Book, error) {
	target, ok := r.catalog[bookID]
	if !ok {
		return nil, domain.ErrBookNotFound
	}

	var results []scoredBook
	for id, book := range r.catalog {
		if id == bookID {
			continue
		}
		results = append(results, scoredBook{book: book, score: similarity(target, book)})
	}

	sortScored(results)
	return takeBooks(results, limit), nil
}

// Trending returns the user's most-viewed books, ordered by view count.
func (r *Recommender) Trending(userID string, limit int) ([]*domain.Book, error) {
	entries, err := r.history.History(userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ViewCount != entries[j].ViewCount {
			return entries[i].ViewCount > entries[j].ViewCount
		}
		return entries[i].LastViewed.After(entries[j].LastViewed)
	})

	var books []*domain.Book
	for _, entry := range entries {
		if book, ok := r.catalog[entry.BookID]; ok {
			books = append(books, book)
			if limit > 0 && len(books) >= limit {
				break
			}
		}
	}
	return books, nil
}

func sortScored(results []scoredBook) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].book.Title < results[j].book.Title
	})
}

func takeBooks(results []scoredBook, limit int) []*domain.Book {
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	books := make([]*domain.Book, len(results))
	for i, r := range results {
		books[i] = r.book
	}
	return books
}

func bookScore(book *domain.Book, prefs *domain.Preferences) float64 {
	var score float64

	if prefs != nil {
		if n := prefs.Categories[book.Category]; n > 0 {
			score += weightCategory * float64(n)
		}
		if n := prefs.Authors[book.Author]; n > 0 {
			score += weightAuthor * float64(n)
		}
	}

	popularity := float64(book.OriginalSize) / popularityCeiling
	if popularity > 1 {
		popularity = 1
	}
	score += weightPopularity * popularity

	// No publication dates in the manifest, so recency is a flat prior.
	score += weightRecency * 0.5

	return score
}

func similarity(a, b *domain.Book) float64 {
	var score float64
	if a.Category == b.Category {
		score += similarityCategory
	}
	if a.Author == b.Author {
		score += similarityAuthor
	}
	score += similarityDescription * jaccard(wordSet(a.Description), wordSet(b.Description))
	return score
}

func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[w] = struct{}{}
	}
	return set
}
