package crawler

import (
	"fmt"
	"testing"
)

func defaultKeywords() []string {
	return []string{"impressum", "privacy", "terms"}
}

func TestSchedulerClassifyLevel(t *testing.T) {
	t.Parallel()

	t.Run("legal keyword forces level 0 regardless of parent depth", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		s.Register("https://example.com/", "")
		s.Register("https://example.com/deep", "https://example.com/")

		if got := s.ClassifyLevel("https://example.com/impressum", "https://example.com/deep"); got != LegalLevel {
			t.Errorf("legal page classified at level %d, want %d", got, LegalLevel)
		}
		if got := s.ClassifyLevel("https://example.com/Privacy-Policy", ""); got != LegalLevel {
			t.Errorf("keyword match must be case-insensitive, got level %d", got)
		}
	})

	t.Run("nil parent is the seed level", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		if got := s.ClassifyLevel("https://example.com/", ""); got != SeedLevel {
			t.Errorf("seed classified at level %d, want %d", got, SeedLevel)
		}
	})

	t.Run("child is parent level plus one", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		s.Register("https://example.com/", "")
		s.Register("https://example.com/en", "https://example.com/")

		if got := s.ClassifyLevel("https://example.com/en/products", "https://example.com/en"); got != 3 {
			t.Errorf("grandchild classified at level %d, want 3", got)
		}
	})
}

func TestSchedulerRegister(t *testing.T) {
	t.Parallel()

	t.Run("level assignment is stable under re-discovery", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(5, nil, defaultKeywords())
		s.Register("https://example.com/", "")
		s.Register("https://example.com/a", "https://example.com/")
		s.Register("https://example.com/a/b", "https://example.com/a")

		first := s.Register("https://example.com/page", "https://example.com/")
		again := s.Register("https://example.com/page", "https://example.com/a/b")

		if first != again {
			t.Errorf("re-registration changed level from %d to %d", first, again)
		}
	})

	t.Run("idempotent registration counts the visit once", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		s.Register("https://example.com/", "")
		s.Register("https://example.com/", "")

		if got := s.LevelCounts()[SeedLevel]; got != 1 {
			t.Errorf("seed level counted %d times, want 1", got)
		}
	})

	t.Run("equivalent url spellings register once", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		s.Register("https://Example.COM", "")
		s.Register("https://example.com/", "")

		if got := s.LevelCounts()[SeedLevel]; got != 1 {
			t.Errorf("normalized duplicates counted %d times, want 1", got)
		}
	})
}

func TestSchedulerAdmit(t *testing.T) {
	t.Parallel()

	t.Run("legal pages are always admitted", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(1, map[int]int{1: 1}, defaultKeywords())
		if !s.Admit("https://example.com/terms", "https://example.com/") {
			t.Error("legal page rejected")
		}
	})

	t.Run("URLs beyond max level are rejected", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(2, nil, defaultKeywords())
		s.Register("https://example.com/", "")
		s.Register("https://example.com/a", "https://example.com/")
		s.Register("https://example.com/a/b", "https://example.com/a")

		if s.Admit("https://example.com/a/b/c", "https://example.com/a/b") {
			t.Error("level 4 URL admitted with max level 2")
		}
	})

	t.Run("unlimited levels admit everything", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, map[int]int{2: UnlimitedQuota}, defaultKeywords())
		s.Register("https://example.com/", "")
		for i := range 50 {
			u := fmt.Sprintf("https://example.com/page-%d", i)
			if !s.Admit(u, "https://example.com/") {
				t.Fatalf("URL %d rejected on unlimited level", i)
			}
		}
	})

	t.Run("deepest level caps admissions per category", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(2, map[int]int{1: UnlimitedQuota, 2: 1}, defaultKeywords())
		s.Register("https://example.com/", "")

		if !s.Enqueue("https://example.com/en/products/a", "https://example.com/", false) {
			t.Fatal("first URL of category rejected")
		}
		if s.Enqueue("https://example.com/en/products/b", "https://example.com/", false) {
			t.Error("second URL of the en/products category admitted past the cap")
		}
		if !s.Enqueue("https://example.com/en/blog/post", "https://example.com/", false) {
			t.Error("URL of different category rejected")
		}
	})

	t.Run("category cap never exceeded across many admissions", func(t *testing.T) {
		t.Parallel()

		const limit = 2
		s := NewScheduler(2, map[int]int{2: limit}, defaultKeywords())
		s.Register("https://example.com/", "")

		for i := range 20 {
			s.Enqueue(fmt.Sprintf("https://example.com/en/products/item-%d", i), "https://example.com/", false)
		}

		if got := len(s.categories["en/products"]); got > limit {
			t.Errorf("category holds %d URLs, cap is %d", got, limit)
		}
	})

	t.Run("finite cap at a non-deepest level holds under burst discovery", func(t *testing.T) {
		t.Parallel()

		const limit = 2
		s := NewScheduler(3, map[int]int{2: limit, 3: UnlimitedQuota}, defaultKeywords())
		s.Register("https://example.com/", "")

		// All ten children are discovered in one extraction pass, before
		// any of them is visited. The cap must hold at enqueue time.
		enqueued := 0
		for i := range 10 {
			if s.Enqueue(fmt.Sprintf("https://example.com/section-%d", i), "https://example.com/", false) {
				enqueued++
			}
		}
		if enqueued != limit {
			t.Fatalf("enqueued %d level-2 URLs, cap is %d", enqueued, limit)
		}

		// Draining and registering the frontier must not blow the cap.
		for {
			item, ok := s.Dequeue()
			if !ok {
				break
			}
			s.Register(item.URL, item.ParentURL)
		}
		if got := s.LevelCounts()[2]; got > limit {
			t.Errorf("registered %d URLs at level 2, cap is %d", got, limit)
		}
	})

	t.Run("malformed URLs are silently dropped", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		if s.Admit("://not a url", "") {
			t.Error("malformed URL admitted")
		}
		if s.Admit("relative/path", "") {
			t.Error("non-absolute URL admitted")
		}
		if s.Enqueue("://not a url", "", false) {
			t.Error("malformed URL enqueued")
		}
	})
}

func TestSchedulerDequeueOrder(t *testing.T) {
	t.Parallel()

	t.Run("legal pages drain before everything else", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		s.Register("https://example.com/", "")
		s.Enqueue("https://example.com/blog", "https://example.com/", false)
		s.Enqueue("https://example.com/about", "https://example.com/", true)
		s.Enqueue("https://example.com/impressum", "https://example.com/", false)

		item, ok := s.Dequeue()
		if !ok {
			t.Fatal("expected an item")
		}
		if item.Level != LegalLevel {
			t.Errorf("first dequeued item has level %d, want legal level", item.Level)
		}
	})

	t.Run("navigation links precede body links within a level", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		s.Register("https://example.com/", "")
		s.Enqueue("https://example.com/body-link", "https://example.com/", false)
		s.Enqueue("https://example.com/nav-link", "https://example.com/", true)

		item, _ := s.Dequeue()
		if !item.IsNavigation {
			t.Errorf("expected navigation link first, got %s", item.URL)
		}
	})

	t.Run("shallower levels precede deeper ones", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		s.Register("https://example.com/", "")
		s.Register("https://example.com/a", "https://example.com/")

		s.Enqueue("https://example.com/a/deep", "https://example.com/a", true)
		s.Enqueue("https://example.com/shallow", "https://example.com/", false)

		item, _ := s.Dequeue()
		if item.URL != "https://example.com/shallow" {
			t.Errorf("expected shallow link first, got %s", item.URL)
		}
	})

	t.Run("late-discovered legal page jumps the queue", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		s.Register("https://example.com/", "")
		s.Enqueue("https://example.com/one", "https://example.com/", false)
		s.Enqueue("https://example.com/two", "https://example.com/", false)

		if _, ok := s.Dequeue(); !ok {
			t.Fatal("expected an item")
		}

		s.Enqueue("https://example.com/privacy", "https://example.com/", false)
		item, _ := s.Dequeue()
		if item.Level != LegalLevel {
			t.Errorf("legal page did not jump ahead, got %s", item.URL)
		}
	})

	t.Run("stable order for equal priorities", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		s.Register("https://example.com/", "")
		s.Enqueue("https://example.com/first", "https://example.com/", false)
		s.Enqueue("https://example.com/second", "https://example.com/", false)

		item, _ := s.Dequeue()
		if item.URL != "https://example.com/first" {
			t.Errorf("expected insertion order preserved, got %s", item.URL)
		}
	})

	t.Run("duplicate discovery enqueues once", func(t *testing.T) {
		t.Parallel()

		s := NewScheduler(3, nil, defaultKeywords())
		s.Register("https://example.com/", "")
		s.Enqueue("https://example.com/page", "https://example.com/", false)
		if s.Enqueue("https://example.com/page#section", "https://example.com/", false) {
			t.Error("fragment variant enqueued as a second item")
		}
		if s.Len() != 1 {
			t.Errorf("frontier holds %d items, want 1", s.Len())
		}
	})
}

func TestSchedulerEndToEndExample(t *testing.T) {
	t.Parallel()

	// The catalog sampling walkthrough: root links an impressum and two
	// product pages in the same en/products category, with maxLevel=2 and
	// a category cap of 1 at the deepest level.
	s := NewScheduler(2, map[int]int{1: UnlimitedQuota, 2: 1}, defaultKeywords())
	s.Register("https://example.com/", "")

	if !s.Enqueue("https://example.com/en/products/a", "https://example.com/", false) {
		t.Fatal("first product page rejected")
	}
	if s.Enqueue("https://example.com/en/products/b", "https://example.com/", false) {
		t.Fatal("second product page admitted past the category cap")
	}
	if !s.Enqueue("https://example.com/impressum", "https://example.com/", false) {
		t.Fatal("impressum rejected")
	}

	first, _ := s.Dequeue()
	if first.Level != LegalLevel {
		t.Errorf("impressum should drain before the product page, got %s", first.URL)
	}
	second, _ := s.Dequeue()
	if second.URL != "https://example.com/en/products/a" {
		t.Errorf("expected the sampled product page next, got %s", second.URL)
	}
	if _, ok := s.Dequeue(); ok {
		t.Error("frontier should be empty")
	}
}

func TestCategoryKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/en/products/a", "en/products"},
		{"https://example.com/en/products/b?x=1", "en/products"},
		{"https://example.com/en", "en"},
		{"https://example.com/", ""},
		{"https://example.com//en//products//a", "en/products"},
	}

	for _, tt := range tests {
		if got := CategoryKey(tt.url); got != tt.want {
			t.Errorf("CategoryKey(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
