package ranking

import "testing"

func TestRankCompetition(t *testing.T) {
	scores := []Score{
		{UserID: 4, SeasonID: 1, TotalPoints: 10},
		{UserID: 2, SeasonID: 1, TotalPoints: 30},
		{UserID: 3, SeasonID: 1, TotalPoints: 20},
		{UserID: 1, SeasonID: 1, TotalPoints: 30},
	}
	got := Rank(scores)
	wantRanks := []int{1, 1, 3, 4}
	wantUsers := []uint64{1, 2, 3, 4}
	if len(got) != len(wantRanks) {
		t.Fatalf("expected %d entries, got %d", len(wantRanks), len(got))
	}
	for i := range got {
		if got[i].Rank != wantRanks[i] || got[i].UserID != wantUsers[i] {
			t.Fatalf("entry %d: got user=%d rank=%d", i, got[i].UserID, got[i].Rank)
		}
	}
}

func TestRankAllTied(t *testing.T) {
	got := Rank([]Score{{UserID: 1, TotalPoints: 5}, {UserID: 2, TotalPoints: 5}, {UserID: 3, TotalPoints: 5}})
	for _, e := range got {
		if e.Rank != 1 {
			t.Fatalf("expected rank 1 for all, got %+v", got)
		}
	}
}

func TestRankTrailingTie(t *testing.T) {
	got := Rank([]Score{{UserID: 1, TotalPoints: 50}, {UserID: 2, TotalPoints: 20}, {UserID: 3, TotalPoints: 20}, {UserID: 4, TotalPoints: 0}})
	want := []int{1, 2, 2, 4}
	for i, e := range got {
		if e.Rank != want[i] {
			t.Fatalf("entry %d: got rank %d want %d", i, e.Rank, want[i])
		}
	}
}

func TestRankEmpty(t *testing.T) {
	got := Rank(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []Score{{UserID: 2, TotalPoints: 1}, {UserID: 1, TotalPoints: 9}}
	_ = Rank(in)
	if in[0].UserID != 2 {
		t.Fatalf("input reordered")
	}
}

func TestFind(t *testing.T) {
	entries := Rank([]Score{{UserID: 7, TotalPoints: 3}})
	if e, ok := Find(entries, 7); !ok || e.Rank != 1 {
		t.Fatalf("find: %+v %v", e, ok)
	}
	if _, ok := Find(entries, 8); ok {
		t.Fatalf("expected miss")
	}
}
