package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Clark-Hu/movielists/internal/domain"
)

// ListItemsRepository persists list membership rows.
type ListItemsRepository struct {
	db DBTX
}

const itemColumns = `i.id, i.list_id, i.movie_id, i.date_added`

// ItemInsertParams bundles the fields required to add a movie to a list.
type ItemInsertParams struct {
	ID        string
	ListID    string
	MovieID   string
	DateAdded time.Time
}

// Insert adds a movie to a list unless it is already there. inserted is false when
// the (list, movie) pair already existed; the stored row is left untouched.
func (r *ListItemsRepository) Insert(ctx context.Context, params ItemInsertParams) (item domain.ListItem, inserted bool, err error) {
	const query = `
        INSERT INTO movie_list_items AS i (id, list_id, movie_id, date_added)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (list_id, movie_id) DO NOTHING
        RETURNING i.id, i.list_id, i.movie_id, i.date_added
    `
	item, err = scanItem(r.db.QueryRow(ctx, query, params.ID, params.ListID, params.MovieID, params.DateAdded))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ListItem{}, false, nil
		}
		return domain.ListItem{}, false, err
	}
	return item, true, nil
}

// FindByListAndMovie fetches the item placing movieID in listID.
func (r *ListItemsRepository) FindByListAndMovie(ctx context.Context, listID, movieID string) (domain.ListItem, error) {
	query := fmt.Sprintf(`SELECT %s FROM movie_list_items i WHERE i.list_id = $1 AND i.movie_id = $2`, itemColumns)
	item, err := scanItem(r.db.QueryRow(ctx, query, listID, movieID))
	if err != nil {
		return domain.ListItem{}, notFound(err)
	}
	return item, nil
}

// DeleteByListAndMovie removes movieID from listID and reports whether a row was removed.
func (r *ListItemsRepository) DeleteByListAndMovie(ctx context.Context, listID, movieID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM movie_list_items WHERE list_id = $1 AND movie_id = $2`, listID, movieID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetWithOwnerForUpdate fetches an item together with the owner of its list and
// locks the item row until the surrounding transaction ends.
func (r *ListItemsRepository) GetWithOwnerForUpdate(ctx context.Context, itemID string) (item domain.ListItem, ownerID string, err error) {
	query := fmt.Sprintf(`
        SELECT %s, l.user_id
        FROM movie_list_items i
        JOIN movie_lists l ON l.id = i.list_id
        WHERE i.id = $1
        FOR UPDATE OF i
    `, itemColumns)
	err = r.db.QueryRow(ctx, query, itemID).Scan(&item.ID, &item.ListID, &item.MovieID, &item.DateAdded, &ownerID)
	if err != nil {
		return domain.ListItem{}, "", notFound(err)
	}
	return item, ownerID, nil
}

// Delete removes an item by id and reports whether a row was removed.
func (r *ListItemsRepository) Delete(ctx context.Context, itemID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM movie_list_items WHERE id = $1`, itemID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountByList returns the number of items in a list.
func (r *ListItemsRepository) CountByList(ctx context.Context, listID string) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM movie_list_items WHERE list_id = $1`, listID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count list items: %w", err)
	}
	return count, nil
}

// EntriesByList returns a list's items joined with their movies and genres, oldest first.
func (r *ListItemsRepository) EntriesByList(ctx context.Context, listID string) ([]domain.ListEntry, error) {
	query := fmt.Sprintf(`
        SELECT %s, %s
        FROM movie_list_items i
        JOIN movies m ON m.id = i.movie_id
        WHERE i.list_id = $1
        ORDER BY i.date_added, i.id
    `, itemColumns, movieColumns)
	rows, err := r.db.Query(ctx, query, listID)
	if err != nil {
		return nil, err
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ListEntry, error) {
		return scanEntry(row)
	})
	if err != nil {
		return nil, err
	}
	if err := attachGenres(ctx, r.db, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EntriesByUser returns the contents of every list owned by userID keyed by list id.
func (r *ListItemsRepository) EntriesByUser(ctx context.Context, userID string) (map[string][]domain.ListEntry, error) {
	query := fmt.Sprintf(`
        SELECT %s, %s
        FROM movie_list_items i
        JOIN movie_lists l ON l.id = i.list_id
        JOIN movies m ON m.id = i.movie_id
        WHERE l.user_id = $1
        ORDER BY i.date_added, i.id
    `, itemColumns, movieColumns)
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ListEntry, error) {
		return scanEntry(row)
	})
	if err != nil {
		return nil, err
	}
	if err := attachGenres(ctx, r.db, entries); err != nil {
		return nil, err
	}

	byList := make(map[string][]domain.ListEntry)
	for _, e := range entries {
		byList[e.Item.ListID] = append(byList[e.Item.ListID], e)
	}
	return byList, nil
}

// MovieIDsInSystemList returns the movie ids in the caller's system list with the given title.
func (r *ListItemsRepository) MovieIDsInSystemList(ctx context.Context, userID, title string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
        SELECT i.movie_id
        FROM movie_list_items i
        JOIN movie_lists l ON l.id = i.list_id
        WHERE l.user_id = $1 AND l.is_system AND l.title = $2
        ORDER BY i.date_added, i.id
    `, userID, title)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// SystemMembership reports whether movieID is in the user's Seen and Watchlist lists.
func (r *ListItemsRepository) SystemMembership(ctx context.Context, userID, movieID string) (domain.EngagementStatus, error) {
	const query = `
        SELECT
            EXISTS (
                SELECT 1 FROM movie_list_items i JOIN movie_lists l ON l.id = i.list_id
                WHERE l.user_id = $1 AND l.is_system AND l.title = $3 AND i.movie_id = $2
            ),
            EXISTS (
                SELECT 1 FROM movie_list_items i JOIN movie_lists l ON l.id = i.list_id
                WHERE l.user_id = $1 AND l.is_system AND l.title = $4 AND i.movie_id = $2
            )
    `
	var status domain.EngagementStatus
	err := r.db.QueryRow(ctx, query, userID, movieID, domain.SeenListTitle, domain.WatchlistListTitle).
		Scan(&status.Seen, &status.InWatchlist)
	if err != nil {
		return domain.EngagementStatus{}, fmt.Errorf("query system membership: %w", err)
	}
	return status, nil
}

func scanItem(row pgx.Row) (domain.ListItem, error) {
	var item domain.ListItem
	err := row.Scan(&item.ID, &item.ListID, &item.MovieID, &item.DateAdded)
	if err != nil {
		return domain.ListItem{}, err
	}
	return item, nil
}

func scanEntry(row pgx.Row) (domain.ListEntry, error) {
	var e domain.ListEntry
	err := row.Scan(
		&e.Item.ID,
		&e.Item.ListID,
		&e.Item.MovieID,
		&e.Item.DateAdded,
		&e.Movie.ID,
		&e.Movie.Title,
		&e.Movie.Summary,
		&e.Movie.Director,
		&e.Movie.PosterURL,
		&e.Movie.ReleaseDate,
		&e.Movie.Runtime,
		&e.Movie.CreatedAt,
		&e.Movie.UpdatedAt,
	)
	if err != nil {
		return domain.ListEntry{}, err
	}
	return e, nil
}
