package catalog

import (
	"sort"
	"strings"

	"secure-library/internal/domain"
)

// Field weights for relevance scoring.
const (
	titleWeight       = 0.5
	authorWeight      = 0.3
	descriptionWeight = 0.1
	categoryWeight    = 0.1
)

// Sort modes accepted by Search.
const (
	SortByRelevance = "relevance"
	SortByTitle     = "title"
	SortByAuthor    = "author"
	SortBySize      = "size"
)

// Search scores every catalog entry against the query and filters.
// An empty query with no filters returns the whole catalog. Results are
// ordered by the requested sort mode, relevance by default.
func Search(c domain.Catalog, query string, filters domain.SearchFilters) []*domain.Book {
	terms := splitTerms(query)

	if len(terms) == 0 && filters.Category == "" && filters.Encrypted == nil {
		return sortBooks(allBooks(c), filters.SortBy)
	}

	type scored struct {
		book  *domain.Book
		score float64
	}

	var results []scored
	for _, book := range c {
		if filters.Category != "" && book.Category != filters.Category {
			continue
		}
		if filters.Encrypted != nil && book.Encrypted != *filters.Encrypted {
			continue
		}

		score := titleWeight*termScore(book.Title, terms) +
			authorWeight*termScore(book.Author, terms) +
			descriptionWeight*termScore(book.Description, terms) +
			categoryWeight*termScore(book.Category, terms)

		// With a query, only matching books qualify; a filter-only
		// search keeps every book that passed the filters.
		if len(terms) > 0 && score <= 0 {
			continue
		}

		results = append(results, scored{book: book, score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].book.Title < results[j].book.Title
	})

	books := make([]*domain.Book, len(results))
	for i, r := range results {
		books[i] = r.book
	}

	if filters.SortBy != "" && filters.SortBy != SortByRelevance {
		return sortBooks(books, filters.SortBy)
	}
	return books
}

// termScore scores one text field against the query terms: 1 point per
// matching term, 0.5 bonus for a prefix match, 0.2 per repeat occurrence.
func termScore(text string, terms []string) float64 {
	if text == "" || len(terms) == 0 {
		return 0
	}

	lower := strings.ToLower(text)
	var score float64
	for _, term := range terms {
		if !strings.Contains(lower, term) {
			continue
		}
		score++
		if strings.HasPrefix(lower, term) {
			score += 0.5
		}
		if extra := strings.Count(lower, term) - 1; extra > 0 {
			score += float64(extra) * 0.2
		}
	}
	return score
}

func splitTerms(query string) []string {
	var terms []string
	for _, t := range strings.Fields(strings.ToLower(query)) {
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func allBooks(c domain.Catalog) []*domain.Book {
	books := make([]*domain.Book, 0, len(c))
	for _, book := range c {
		books = append(books, book)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	return books
}

func sortBooks(books []*domain.Book, sortBy string) []*domain.Book {
	switch sortBy {
	case SortByTitle:
		sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })
	case SortByAuthor:
		sort.Slice(books, func(i, j int) bool {
			if books[i].Author != books[j].Author {
				return books[i].Author < books[j].Author
			}
			return books[i].Title < books[j].Title
		})
	case SortBySize:
		sort.Slice(books, func(i, j int) bool {
			if books[i].OriginalSize != books[j].OriginalSize {
				return books[i].OriginalSize > books[j].OriginalSize
			}
			return books[i].Title < books[j].Title
		})
	}
	return books
}

// Categories returns the distinct category names present in the catalog,
// sorted for stable display.
func Categories(c domain.Catalog) []string {
	seen := make(map[string]struct{})
	for _, book := range c {
		seen[book.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for category := range seen {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
