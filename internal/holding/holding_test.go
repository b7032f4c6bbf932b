package holding

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"dealclient/internal/card"
)

func props(color card.Color, ids ...string) []card.Card {
	out := make([]card.Card, len(ids))
	for i, id := range ids {
		out[i] = card.Property(id, color)
	}
	return out
}

func TestPartitionMainAndOverflow(t *testing.T) {
	h := Holding{
		card.Red: append(props(card.Red, "r1", "r2", "r3", "r4"),
			card.Action("h1", card.ActionHouse),
			card.Action("h2", card.ActionHouse),
			card.Action("t1", card.ActionHotel)),
	}
	sets, err := Partition(h)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	main := sets.Main[card.Red]
	over := sets.Overflow[card.Red]
	if got := main.IDs(); fmt.Sprint(got) != "[r1 r2 r3 h1 t1]" {
		t.Fatalf("main = %v", got)
	}
	if got := over.IDs(); fmt.Sprint(got) != "[r4 h2]" {
		t.Fatalf("overflow = %v", got)
	}
	if !main.Complete() || !main.HasHouse() || !main.HasHotel() {
		t.Fatalf("expected complete upgraded main set: %+v", main)
	}
	if over.Complete() {
		t.Fatal("single overflow card should not be complete")
	}
}

func TestPartitionUpgradeOnIncompleteSet(t *testing.T) {
	h := Holding{card.Green: append(props(card.Green, "g1"), card.Action("h1", card.ActionHouse))}
	sets, err := Partition(h)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	main := sets.Main[card.Green]
	if !main.HasHouse() {
		t.Fatal("first house always lands in main set")
	}
	if main.Complete() {
		t.Fatal("one green card is not complete")
	}
}

func TestPartitionTwoCompleteSets(t *testing.T) {
	h := Holding{card.Brown: props(card.Brown, "b1", "b2", "b3", "b4")}
	sets, err := Partition(h)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if !sets.Main[card.Brown].Complete() || !sets.Overflow[card.Brown].Complete() {
		t.Fatal("expected two independent complete brown sets")
	}
	if n := len(sets.CompleteGroups()); n != 2 {
		t.Fatalf("expected 2 complete groups, got %d", n)
	}
	if r := sets.Raidable(); len(r) != 0 {
		t.Fatalf("complete sets are not raidable: %v", r)
	}
}

func TestPartitionAbsentColors(t *testing.T) {
	sets, err := Partition(Holding{})
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	for _, c := range card.Colors() {
		if len(sets.Main[c].Cards) != 0 || len(sets.Overflow[c].Cards) != 0 {
			t.Fatalf("%s: expected empty groups", c)
		}
		if sets.Main[c].Requirement == 0 {
			t.Fatalf("%s: empty group should still carry its requirement", c)
		}
	}
}

func TestPartitionUnknownColor(t *testing.T) {
	_, err := Partition(Holding{"purple": props("purple", "p1")})
	if !errors.Is(err, card.ErrUnknownColor) {
		t.Fatalf("expected ErrUnknownColor, got %v", err)
	}
}

func TestRaidableAndLocate(t *testing.T) {
	h := Holding{
		card.DarkBlue: props(card.DarkBlue, "d1", "d2"),
		card.Red:      props(card.Red, "r1", "r2", "r3", "r4"),
		card.Pink:     props(card.Pink, "p1"),
	}
	sets, err := Partition(h)
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	var ids []string
	for _, c := range sets.Raidable() {
		ids = append(ids, c.ID)
	}
	if fmt.Sprint(ids) != "[p1 r4]" {
		t.Fatalf("raidable = %v", ids)
	}
	g, ok := sets.Locate("r4")
	if !ok || !g.Overflow || g.Color != card.Red {
		t.Fatalf("locate r4 = %+v, %v", g, ok)
	}
	if _, ok := sets.Locate("zz"); ok {
		t.Fatal("expected unknown id not located")
	}
}

func TestPartitionCountsAreConserved(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	colors := card.Colors()
	for iter := 0; iter < 200; iter++ {
		h := Holding{}
		for _, color := range colors {
			n := r.Intn(9)
			for i := 0; i < n; i++ {
				id := fmt.Sprintf("%s-%d", color, i)
				switch r.Intn(6) {
				case 0:
					h[color] = append(h[color], card.Action(id, card.ActionHouse))
				case 1:
					h[color] = append(h[color], card.Action(id, card.ActionHotel))
				default:
					h[color] = append(h[color], card.Property(id, color))
				}
			}
		}
		sets, err := Partition(h)
		if err != nil {
			t.Fatalf("partition: %v", err)
		}
		for _, color := range colors {
			main, over := sets.Main[color], sets.Overflow[color]
			if main.PropertyCount()+over.PropertyCount() != h.PropertyCount(color) {
				t.Fatalf("%s: property count not conserved", color)
			}
			if len(main.Cards)+len(over.Cards) != len(h[color]) {
				t.Fatalf("%s: card count not conserved", color)
			}
			req, _ := color.Requirement()
			if main.PropertyCount() > req {
				t.Fatalf("%s: main set exceeds requirement", color)
			}
			if over.PropertyCount() > 0 && main.PropertyCount() != req {
				t.Fatalf("%s: overflow holds properties before main set is full", color)
			}
		}
	}
}
