package httpserver

import (
	"net/http"
	"testing"

	"github.com/Clark-Hu/movielists/internal/testutil/pgtest"
)

func BenchmarkHandleToggleSeen(b *testing.B) {
	ts := buildTestServer(b, nil)
	token := ts.token(b, pgtest.CreateUser(b, ts.pool))
	movieID := pgtest.CreateMovie(b, ts.pool, "Benchmark Movie")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := ts.do(b, http.MethodPost, "/movies/"+movieID+"/seen", token, nil)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
