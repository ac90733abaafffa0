package reaction

import (
	"math/rand"
	"testing"

	"github.com/linen/internal/model"
)

var (
	u1 = model.User{ID: "u1", Username: "alice"}
	u2 = model.User{ID: "u2", Username: "bob"}
)

func TestReactUnreact(t *testing.T) {
	msgs := []model.Message{{ID: "m1", Reactions: []model.Reaction{}}}

	msgs = Apply(msgs, "m1", "👍", u1, false)
	r := msgs[0].Reactions
	if len(r) != 1 || r[0].Type != "👍" || r[0].Count != 1 || len(r[0].Users) != 1 || r[0].Users[0].ID != "u1" {
		t.Fatalf("after react: %+v", r)
	}

	msgs = Apply(msgs, "m1", "👍", u1, true)
	if len(msgs[0].Reactions) != 0 {
		t.Fatalf("after unreact: %+v, want empty", msgs[0].Reactions)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	orig := []model.Message{{ID: "m1", Reactions: []model.Reaction{{Type: "🎉", Count: 1, Users: []model.User{u2}}}}}
	_ = Apply(orig, "m1", "🎉", u1, false)
	_ = Apply(orig, "m1", "🎉", u2, true)
	if orig[0].Reactions[0].Count != 1 || len(orig[0].Reactions[0].Users) != 1 {
		t.Fatalf("input mutated: %+v", orig[0].Reactions)
	}
}

func TestUnknownMessageIsNoop(t *testing.T) {
	msgs := []model.Message{{ID: "m1"}}
	got := Apply(msgs, "missing", "👍", u1, false)
	if len(got[0].Reactions) != 0 {
		t.Fatalf("unexpected reactions: %+v", got[0].Reactions)
	}
}

// Любая последовательность нажатий/снятий с корректным active даёт
// count == len(users) == число активных пользователей, без нулевых записей.
func TestNetCountProperty(t *testing.T) {
	users := []model.User{u1, u2, {ID: "u3"}, {ID: "u4"}}
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		msgs := []model.Message{{ID: "m1"}}
		active := make(map[string]bool)
		for step := 0; step < 40; step++ {
			u := users[rng.Intn(len(users))]
			isActive := msgs[0].HasReaction("👍", u.ID)
			msgs = Apply(msgs, "m1", "👍", u, isActive)
			active[u.ID] = !isActive

			want := 0
			for _, on := range active {
				if on {
					want++
				}
			}
			rs := msgs[0].Reactions
			if want == 0 {
				if len(rs) != 0 {
					t.Fatalf("round %d step %d: zero-count reaction kept: %+v", round, step, rs)
				}
				continue
			}
			if len(rs) != 1 || rs[0].Count != want || len(rs[0].Users) != want {
				t.Fatalf("round %d step %d: got %+v, want count %d", round, step, rs, want)
			}
		}
	}
}

func TestApplyThreadsKeepsMirrorConsistent(t *testing.T) {
	thread := model.Thread{ID: "t1", Pinned: true, Messages: []model.Message{{ID: "m1"}}}
	threads := []model.Thread{thread, {ID: "t2"}}
	pinned := []model.Thread{thread}

	threads = ApplyThreads(threads, "t1", "m1", "❤️", u1, false)
	pinned = ApplyThreads(pinned, "t1", "m1", "❤️", u1, false)

	if threads[0].Messages[0].Reactions[0].Count != 1 || pinned[0].Messages[0].Reactions[0].Count != 1 {
		t.Fatalf("views diverged: %+v vs %+v", threads[0].Messages[0].Reactions, pinned[0].Messages[0].Reactions)
	}
	if len(thread.Messages[0].Reactions) != 0 {
		t.Fatal("original thread value mutated")
	}
}

func TestActionFor(t *testing.T) {
	if ActionFor(true) != ActionDecrement || ActionFor(false) != ActionIncrement {
		t.Fatal("ActionFor mapping is inverted")
	}
}
