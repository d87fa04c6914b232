package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/movielists/internal/domain"
	"github.com/Clark-Hu/movielists/internal/testutil/pgtest"
)

type testEnv struct {
	ctx        context.Context
	pool       *pgxpool.Pool
	repository *Repository
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	pool := pgtest.New(t)
	return &testEnv{
		ctx:        context.Background(),
		pool:       pool,
		repository: New(pool),
	}
}

func mustCreateList(t testing.TB, env *testEnv, userID, title string) domain.MovieList {
	t.Helper()
	list, err := env.repository.Lists.CreateCustom(env.ctx, ListCreateParams{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create list %q: %v", title, err)
	}
	return list
}

func mustInsertItem(t testing.TB, env *testEnv, listID, movieID string, at time.Time) domain.ListItem {
	t.Helper()
	item, inserted, err := env.repository.Items.Insert(env.ctx, ItemInsertParams{
		ID:        uuid.NewString(),
		ListID:    listID,
		MovieID:   movieID,
		DateAdded: at,
	})
	if err != nil {
		t.Fatalf("insert item: %v", err)
	}
	if !inserted {
		t.Fatalf("expected item to be inserted")
	}
	return item
}

func TestMoviesRepository_GenresAndExists(t *testing.T) {
	env := newTestEnv(t)

	heat := pgtest.CreateMovie(t, env.pool, "Heat")
	bare := pgtest.CreateMovie(t, env.pool, "Bare")
	pgtest.AttachGenre(t, env.pool, heat, 2, "Drama")
	pgtest.AttachGenre(t, env.pool, heat, 1, "Crime")

	genres, err := env.repository.Movies.GenresByMovies(env.ctx, []string{heat, bare, uuid.NewString()})
	if err != nil {
		t.Fatalf("GenresByMovies: %v", err)
	}
	got := genres[heat]
	if len(got) != 2 || got[0].Name != "Crime" || got[1].Name != "Drama" || got[0].ID != 1 {
		t.Fatalf("genres = %+v, want Crime, Drama", got)
	}
	if _, ok := genres[bare]; ok {
		t.Fatalf("movie without genres should be absent, got %+v", genres[bare])
	}

	empty, err := env.repository.Movies.GenresByMovies(env.ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("GenresByMovies(nil) = %v, %v; want empty", empty, err)
	}

	exists, err := env.repository.Movies.Exists(env.ctx, heat)
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v; want true", exists, err)
	}
	exists, err = env.repository.Movies.Exists(env.ctx, uuid.NewString())
	if err != nil || exists {
		t.Fatalf("Exists(unknown) = %v, %v; want false", exists, err)
	}
}

func TestListsRepository_InsertSystemIsFindOrCreate(t *testing.T) {
	env := newTestEnv(t)
	userID := pgtest.CreateUser(t, env.pool)

	params := ListCreateParams{ID: uuid.NewString(), UserID: userID, Title: domain.WatchlistListTitle, CreatedAt: time.Now().UTC()}
	first, created, err := env.repository.Lists.InsertSystem(env.ctx, params)
	if err != nil {
		t.Fatalf("first InsertSystem: %v", err)
	}
	if !created || !first.IsSystem {
		t.Fatalf("expected a new system list, got created=%v list=%+v", created, first)
	}

	params.ID = uuid.NewString()
	_, created, err = env.repository.Lists.InsertSystem(env.ctx, params)
	if err != nil {
		t.Fatalf("second InsertSystem: %v", err)
	}
	if created {
		t.Fatalf("second InsertSystem should not create a duplicate")
	}

	found, err := env.repository.Lists.FindSystem(env.ctx, userID, domain.WatchlistListTitle)
	if err != nil {
		t.Fatalf("FindSystem: %v", err)
	}
	if found.ID != first.ID {
		t.Fatalf("FindSystem id = %s, want %s", found.ID, first.ID)
	}

	// A custom list may share the title of a system list.
	custom := mustCreateList(t, env, userID, domain.WatchlistListTitle)
	if custom.IsSystem {
		t.Fatalf("custom list reported as system")
	}
}

func TestListsRepository_ConcurrentInsertSystem(t *testing.T) {
	env := newTestEnv(t)
	userID := pgtest.CreateUser(t, env.pool)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := env.repository.Lists.InsertSystem(env.ctx, ListCreateParams{
				ID: uuid.NewString(), UserID: userID, Title: domain.SeenListTitle, CreatedAt: time.Now().UTC(),
			})
			if err != nil {
				t.Errorf("InsertSystem: %v", err)
				return
			}
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("created %d system lists, want 1", created)
	}
	lists, err := env.repository.Lists.ListByUser(env.ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("user has %d lists, want 1", len(lists))
	}
}

func TestListsRepository_ListByUserOrdering(t *testing.T) {
	env := newTestEnv(t)
	userID := pgtest.CreateUser(t, env.pool)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mustCreateList(t, env, userID, "Favorites")
	for i, title := range []string{domain.WatchlistListTitle, domain.SeenListTitle} {
		_, _, err := env.repository.Lists.InsertSystem(env.ctx, ListCreateParams{
			ID: uuid.NewString(), UserID: userID, Title: title, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("InsertSystem %s: %v", title, err)
		}
	}

	lists, err := env.repository.Lists.ListByUser(env.ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	var titles []string
	for _, l := range lists {
		titles = append(titles, l.Title)
	}
	want := []string{domain.SeenListTitle, domain.WatchlistListTitle, "Favorites"}
	if fmt.Sprint(titles) != fmt.Sprint(want) {
		t.Fatalf("titles = %v, want %v", titles, want)
	}

	other := pgtest.CreateUser(t, env.pool)
	lists, err = env.repository.Lists.ListByUser(env.ctx, other)
	if err != nil {
		t.Fatalf("ListByUser other: %v", err)
	}
	if len(lists) != 0 {
		t.Fatalf("other user sees %d lists, want 0", len(lists))
	}
}

func TestListsRepository_DeleteCascadesItems(t *testing.T) {
	env := newTestEnv(t)
	userID := pgtest.CreateUser(t, env.pool)
	movieID := pgtest.CreateMovie(t, env.pool, "Alien")
	list := mustCreateList(t, env, userID, "Sci-Fi")
	item := mustInsertItem(t, env, list.ID, movieID, time.Now().UTC())

	deleted, err := env.repository.Lists.Delete(env.ctx, list.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v; want true", deleted, err)
	}
	if _, err := env.repository.Lists.GetByID(env.ctx, list.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, _, err := env.repository.Items.GetWithOwnerForUpdate(env.ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected item to be cascaded, got %v", err)
	}

	deleted, err = env.repository.Lists.Delete(env.ctx, list.ID)
	if err != nil || deleted {
		t.Fatalf("second Delete = %v, %v; want false", deleted, err)
	}
}

func TestListItemsRepository_InsertIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	userID := pgtest.CreateUser(t, env.pool)
	movieID := pgtest.CreateMovie(t, env.pool, "Up")
	list := mustCreateList(t, env, userID, "Pixar")

	firstAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	first := mustInsertItem(t, env, list.ID, movieID, firstAt)

	_, inserted, err := env.repository.Items.Insert(env.ctx, ItemInsertParams{
		ID: uuid.NewString(), ListID: list.ID, MovieID: movieID, DateAdded: firstAt.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("second Insert: %v", err)
	}
	if inserted {
		t.Fatalf("duplicate insert reported as inserted")
	}

	found, err := env.repository.Items.FindByListAndMovie(env.ctx, list.ID, movieID)
	if err != nil {
		t.Fatalf("FindByListAndMovie: %v", err)
	}
	if found.ID != first.ID || !found.DateAdded.Equal(firstAt) {
		t.Fatalf("stored item changed: %+v, want %+v", found, first)
	}

	count, err := env.repository.Items.CountByList(env.ctx, list.ID)
	if err != nil {
		t.Fatalf("CountByList: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestListItemsRepository_GetWithOwnerAndDelete(t *testing.T) {
	env := newTestEnv(t)
	userID := pgtest.CreateUser(t, env.pool)
	movieID := pgtest.CreateMovie(t, env.pool, "Jaws")
	list := mustCreateList(t, env, userID, "Summer")
	item := mustInsertItem(t, env, list.ID, movieID, time.Now().UTC())

	got, ownerID, err := env.repository.Items.GetWithOwnerForUpdate(env.ctx, item.ID)
	if err != nil {
		t.Fatalf("GetWithOwnerForUpdate: %v", err)
	}
	if got.ID != item.ID || ownerID != userID {
		t.Fatalf("got item %s owner %s, want %s owner %s", got.ID, ownerID, item.ID, userID)
	}

	removed, err := env.repository.Items.DeleteByListAndMovie(env.ctx, list.ID, movieID)
	if err != nil || !removed {
		t.Fatalf("DeleteByListAndMovie = %v, %v; want true", removed, err)
	}
	removed, err = env.repository.Items.Delete(env.ctx, item.ID)
	if err != nil || removed {
		t.Fatalf("Delete after removal = %v, %v; want false", removed, err)
	}
}

func TestListItemsRepository_EntriesAndMembership(t *testing.T) {
	env := newTestEnv(t)
	userID := pgtest.CreateUser(t, env.pool)
	older := pgtest.CreateMovie(t, env.pool, "Older")
	newer := pgtest.CreateMovie(t, env.pool, "Newer")
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	seen, _, err := env.repository.Lists.InsertSystem(env.ctx, ListCreateParams{
		ID: uuid.NewString(), UserID: userID, Title: domain.SeenListTitle, CreatedAt: base,
	})
	if err != nil {
		t.Fatalf("InsertSystem: %v", err)
	}
	custom := mustCreateList(t, env, userID, "Mixed")

	mustInsertItem(t, env, seen.ID, newer, base.Add(2*time.Hour))
	mustInsertItem(t, env, seen.ID, older, base.Add(time.Hour))
	mustInsertItem(t, env, custom.ID, newer, base)
	pgtest.AttachGenre(t, env.pool, newer, 7, "Noir")

	entries, err := env.repository.Items.EntriesByList(env.ctx, seen.ID)
	if err != nil {
		t.Fatalf("EntriesByList: %v", err)
	}
	if len(entries) != 2 || entries[0].Movie.Title != "Older" || entries[1].Movie.Title != "Newer" {
		t.Fatalf("entries not ordered by date added: %+v", entries)
	}
	if len(entries[0].Movie.Genres) != 0 {
		t.Fatalf("Older has no genres, got %+v", entries[0].Movie.Genres)
	}
	if g := entries[1].Movie.Genres; len(g) != 1 || g[0].Name != "Noir" {
		t.Fatalf("Newer genres = %+v, want [Noir]", g)
	}

	byList, err := env.repository.Items.EntriesByUser(env.ctx, userID)
	if err != nil {
		t.Fatalf("EntriesByUser: %v", err)
	}
	if len(byList[seen.ID]) != 2 || len(byList[custom.ID]) != 1 {
		t.Fatalf("EntriesByUser sizes = %d/%d, want 2/1", len(byList[seen.ID]), len(byList[custom.ID]))
	}
	if g := byList[custom.ID][0].Movie.Genres; len(g) != 1 || g[0].ID != 7 {
		t.Fatalf("custom list genres = %+v, want [Noir]", g)
	}

	ids, err := env.repository.Items.MovieIDsInSystemList(env.ctx, userID, domain.SeenListTitle)
	if err != nil {
		t.Fatalf("MovieIDsInSystemList: %v", err)
	}
	if len(ids) != 2 || ids[0] != older || ids[1] != newer {
		t.Fatalf("seen ids = %v, want [%s %s]", ids, older, newer)
	}

	status, err := env.repository.Items.SystemMembership(env.ctx, userID, newer)
	if err != nil {
		t.Fatalf("SystemMembership: %v", err)
	}
	if !status.Seen || status.InWatchlist {
		t.Fatalf("status = %+v, want seen only", status)
	}

	// Membership in a custom list does not count as engagement.
	third := pgtest.CreateMovie(t, env.pool, "Third")
	mustInsertItem(t, env, custom.ID, third, base)
	status, err = env.repository.Items.SystemMembership(env.ctx, userID, third)
	if err != nil {
		t.Fatalf("SystemMembership: %v", err)
	}
	if status.Seen || status.InWatchlist {
		t.Fatalf("status = %+v, want none", status)
	}
}

func TestReviewsRepository_UpsertAndSummary(t *testing.T) {
	env := newTestEnv(t)
	movieID := pgtest.CreateMovie(t, env.pool, "Rating Movie")
	user1 := pgtest.CreateUser(t, env.pool)
	user2 := pgtest.CreateUser(t, env.pool)
	posted := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	params := ReviewUpsertParams{
		ID:         uuid.NewString(),
		UserID:     user1,
		MovieID:    movieID,
		Rating:     7,
		Comment:    "great",
		DatePosted: posted,
	}
	review, inserted, err := env.repository.Reviews.Upsert(env.ctx, params)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !inserted {
		t.Fatalf("expected first upsert to insert")
	}
	originalID := review.ID

	params.ID = uuid.NewString()
	params.Rating = 8
	params.Comment = "better"
	params.DatePosted = posted.Add(time.Hour)
	review, inserted, err = env.repository.Reviews.Upsert(env.ctx, params)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if inserted {
		t.Fatalf("expected update, not insert")
	}
	if review.ID != originalID || review.Rating != 8 || review.Comment != "better" || !review.DatePosted.Equal(params.DatePosted) {
		t.Fatalf("review not overwritten in place: %+v", review)
	}

	_, inserted, err = env.repository.Reviews.Upsert(env.ctx, ReviewUpsertParams{
		ID: uuid.NewString(), UserID: user2, MovieID: movieID, Rating: 5, DatePosted: posted.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	if !inserted {
		t.Fatalf("expected insert for second reviewer")
	}

	summary, err := env.repository.Reviews.Summary(env.ctx, movieID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Count != 2 {
		t.Fatalf("summary count = %d, want 2", summary.Count)
	}
	if summary.Average != 6.5 {
		t.Fatalf("summary average = %v, want 6.5", summary.Average)
	}

	reviews, err := env.repository.Reviews.ListByMovie(env.ctx, movieID)
	if err != nil {
		t.Fatalf("ListByMovie: %v", err)
	}
	if len(reviews) != 2 || reviews[0].UserID != user2 {
		t.Fatalf("reviews not newest first: %+v", reviews)
	}

	removed, err := env.repository.Reviews.Delete(env.ctx, user1, movieID)
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v; want true", removed, err)
	}
	if _, err := env.repository.Reviews.Get(env.ctx, user1, movieID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestReviewsRepository_SummaryEmpty(t *testing.T) {
	env := newTestEnv(t)
	movieID := pgtest.CreateMovie(t, env.pool, "No Reviews Movie")

	summary, err := env.repository.Reviews.Summary(env.ctx, movieID)
	if err != nil {
		t.Fatalf("summary without reviews: %v", err)
	}
	if summary.Count != 0 || summary.Average != 0 {
		t.Fatalf("summary = %+v, want zero", summary)
	}
}

func TestReviewsRepository_ConcurrentUpserts(t *testing.T) {
	env := newTestEnv(t)
	movieID := pgtest.CreateMovie(t, env.pool, "Concurrent Movie")
	userID := pgtest.CreateUser(t, env.pool)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(rating int) {
			defer wg.Done()
			_, _, err := env.repository.Reviews.Upsert(env.ctx, ReviewUpsertParams{
				ID: uuid.NewString(), UserID: userID, MovieID: movieID, Rating: rating, DatePosted: time.Now().UTC(),
			})
			if err != nil {
				t.Errorf("upsert rating %d: %v", rating, err)
			}
		}(i + 1)
	}
	wg.Wait()

	summary, err := env.repository.Reviews.Summary(env.ctx, movieID)
	if err != nil {
		t.Fatalf("summary after concurrent upserts: %v", err)
	}
	if summary.Count != 1 {
		t.Fatalf("summary.Count = %d, want 1", summary.Count)
	}
}

func BenchmarkListItemsRepositoryInsert(b *testing.B) {
	env := newTestEnv(b)
	userID := pgtest.CreateUser(b, env.pool)
	list := mustCreateList(b, env, userID, "Bench")
	movieID := pgtest.CreateMovie(b, env.pool, "Bench Movie")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, err := env.repository.Items.Insert(env.ctx, ItemInsertParams{
			ID: uuid.NewString(), ListID: list.ID, MovieID: movieID, DateAdded: time.Now().UTC(),
		})
		if err != nil {
			b.Fatalf("insert: %v", err)
		}
	}
}
