package race

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumBets(s State) int64 {
	var n int64
	for _, v := range s.Bets {
		n += v
	}
	return n
}

func progressOf(winner Suit) map[Suit]float64 {
	p := map[Suit]float64{Hearts: 0, Diamonds: 0, Clubs: 0, Spades: 0}
	p[winner] = 100
	return p
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine()
	s := e.Snapshot()

	assert.Equal(t, StatusBetting, s.Status)
	assert.Equal(t, int64(0), s.TotalBet)
	assert.Empty(t, s.Winner)
	assert.Empty(t, s.History)
	assert.Equal(t, BurnFeeRate, s.BurnFeeRate)
	for _, suit := range Suits {
		assert.Equal(t, int64(0), s.Bets[suit])
		assert.Equal(t, 0.0, s.Progress[suit])
		assert.Equal(t, DefaultOdds, s.Odds[suit])
	}
}

func TestPlaceBet_TotalTracksSum(t *testing.T) {
	e := NewEngine()
	steps := []struct {
		suit   Suit
		amount int64
	}{
		{Hearts, 10},
		{Diamonds, 5},
		{Hearts, 50},
		{Spades, 20},
		{Diamonds, 0},
		{Clubs, 5},
	}
	for _, st := range steps {
		require.NoError(t, e.PlaceBet(st.suit, st.amount))
		s := e.Snapshot()
		assert.Equal(t, sumBets(s), s.TotalBet)
		assert.Equal(t, st.amount, s.Bets[st.suit])
	}
	assert.Equal(t, int64(75), e.TotalBet())
}

func TestPlaceBet_Rejections(t *testing.T) {
	e := NewEngine()

	err := e.PlaceBet(Hearts, 7)
	assert.ErrorIs(t, err, ErrBetNotAllowed)
	assert.True(t, IsRejection(err))

	err = e.PlaceBet(Suit("stars"), 5)
	assert.ErrorIs(t, err, ErrUnknownSuit)

	require.NoError(t, e.PlaceBet(Hearts, 10))
	_, err = e.StartRace(100)
	require.NoError(t, err)

	err = e.PlaceBet(Hearts, 20)
	assert.ErrorIs(t, err, ErrBetWhileRacing)
	assert.EqualError(t, err, "cannot bet while race in progress")
	assert.Equal(t, int64(10), e.Snapshot().Bets[Hearts])
}

func TestCycleBet_Wraps(t *testing.T) {
	e := NewEngine()
	var seen []int64
	for i := 0; i < len(BetCycle); i++ {
		v, err := e.CycleBet(Clubs)
		require.NoError(t, err)
		seen = append(seen, v)
	}
	assert.Equal(t, []int64{5, 10, 20, 50, 0}, seen)
	assert.Equal(t, int64(0), e.TotalBet())
}

func TestStartRace_Preconditions(t *testing.T) {
	t.Run("no bet", func(t *testing.T) {
		e := NewEngine()
		_, err := e.StartRace(100)
		assert.ErrorIs(t, err, ErrNoBet)
		assert.Equal(t, StatusBetting, e.Status())
	})

	t.Run("insufficient balance", func(t *testing.T) {
		e := NewEngine()
		require.NoError(t, e.PlaceBet(Hearts, 50))
		require.NoError(t, e.PlaceBet(Spades, 50))
		_, err := e.StartRace(99)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.EqualError(t, err, "insufficient balance: bet 100, balance 99")
		assert.Equal(t, StatusBetting, e.Status())
	})

	t.Run("already racing", func(t *testing.T) {
		e := NewEngine()
		require.NoError(t, e.PlaceBet(Hearts, 5))
		_, err := e.StartRace(5)
		require.NoError(t, err)
		_, err = e.StartRace(5)
		assert.ErrorIs(t, err, ErrRaceInProgress)
	})

	t.Run("zero total rejected in any status", func(t *testing.T) {
		e := NewEngine()
		require.NoError(t, e.PlaceBet(Hearts, 5))
		_, err := e.StartRace(100)
		require.NoError(t, err)
		_, err = e.FinishRace(Clubs)
		require.NoError(t, err)

		_, err = e.StartRace(100)
		assert.Error(t, err)
		require.NoError(t, e.ResetToBetting())
		_, err = e.StartRace(100)
		assert.ErrorIs(t, err, ErrNoBet)
	})

	t.Run("balance equal to total", func(t *testing.T) {
		e := NewEngine()
		require.NoError(t, e.PlaceBet(Diamonds, 20))
		rs, err := e.StartRace(20)
		require.NoError(t, err)
		assert.Equal(t, int64(20), rs.TotalBet)
		assert.Equal(t, int64(2), rs.BurnAmount)
		assert.Equal(t, StatusRacing, e.Status())
	})
}

func TestStartRace_BurnIsFloored(t *testing.T) {
	cases := map[int64]int64{5: 0, 10: 1, 15: 1, 25: 2, 70: 7, 200: 20}
	for total, want := range cases {
		e := NewEngine()
		rem := total
		for _, s := range Suits {
			for _, v := range []int64{50, 20, 10, 5} {
				if rem >= v && e.Snapshot().Bets[s] == 0 {
					require.NoError(t, e.PlaceBet(s, v))
					rem -= v
				}
			}
		}
		require.Equal(t, int64(0), rem, "total %d not representable", total)
		rs, err := e.StartRace(1000)
		require.NoError(t, err)
		assert.Equal(t, want, rs.BurnAmount, "burn for %d", total)
	}
}

func TestStartRace_ResetsProgress(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.PlaceBet(Hearts, 10))
	_, err := e.StartRace(100)
	require.NoError(t, err)
	_, _, err = e.DrawCard(Draw{Card: Card{Rank: "K", Suit: Hearts}, Progress: map[Suit]float64{Hearts: 48, Clubs: 12}})
	require.NoError(t, err)
	_, err = e.FinishRace(Hearts)
	require.NoError(t, err)
	require.NoError(t, e.ResetToBetting())

	require.NoError(t, e.PlaceBet(Clubs, 5))
	_, err = e.StartRace(100)
	require.NoError(t, err)
	s := e.Snapshot()
	assert.Equal(t, StatusRacing, s.Status)
	for _, suit := range Suits {
		assert.Equal(t, 0.0, s.Progress[suit])
	}
}

func TestDrawCard(t *testing.T) {
	e := NewEngine()

	_, _, err := e.DrawCard(Draw{Card: Card{Suit: Hearts}})
	assert.ErrorIs(t, err, ErrNoRace)

	require.NoError(t, e.PlaceBet(Spades, 10))
	_, err = e.StartRace(10)
	require.NoError(t, err)

	winner, done, err := e.DrawCard(Draw{
		Card:     Card{Rank: "7", Suit: Spades},
		Progress: map[Suit]float64{Spades: 36, Hearts: 24},
	})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, winner)
	assert.Equal(t, 36.0, e.Snapshot().Progress[Spades])

	// suits omitted from the snapshot go back to zero
	_, _, err = e.DrawCard(Draw{Card: Card{Suit: Clubs}, Progress: map[Suit]float64{Clubs: 12}})
	require.NoError(t, err)
	s := e.Snapshot()
	assert.Equal(t, 0.0, s.Progress[Spades])
	assert.Equal(t, 12.0, s.Progress[Clubs])

	winner, done, err = e.DrawCard(Draw{Card: Card{Suit: Diamonds}, Progress: progressOf(Diamonds)})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, Diamonds, winner)
	assert.Equal(t, StatusRacing, e.Status(), "draw never settles the race")
}

func TestDrawCard_TieBreaksBySuitOrder(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.PlaceBet(Clubs, 5))
	_, err := e.StartRace(5)
	require.NoError(t, err)

	winner, done, err := e.DrawCard(Draw{
		Card:     Card{Suit: Spades},
		Progress: map[Suit]float64{Spades: 100, Clubs: 100},
	})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, Clubs, winner)
}

func TestDrawCard_InvalidSnapshotLeavesState(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.PlaceBet(Clubs, 5))
	_, err := e.StartRace(5)
	require.NoError(t, err)
	_, _, err = e.DrawCard(Draw{Card: Card{Suit: Clubs}, Progress: map[Suit]float64{Clubs: 24}})
	require.NoError(t, err)

	bad := []Draw{
		{Card: Card{Suit: "joker"}, Progress: map[Suit]float64{}},
		{Card: Card{Suit: Clubs}, Progress: map[Suit]float64{Clubs: 130}},
		{Card: Card{Suit: Clubs}, Progress: map[Suit]float64{Clubs: -1}},
		{Card: Card{Suit: Clubs}, Progress: map[Suit]float64{"stars": 10}},
	}
	for _, d := range bad {
		_, _, err := e.DrawCard(d)
		assert.True(t, IsRejection(err))
		assert.Equal(t, 24.0, e.Snapshot().Progress[Clubs])
	}
}

func TestFinishRace_Win(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.PlaceBet(Hearts, 10))
	e.SetOdds(map[Suit]float64{Hearts: 2.0})
	_, err := e.StartRace(100)
	require.NoError(t, err)

	st, err := e.FinishRace(Hearts)
	require.NoError(t, err)
	assert.Equal(t, Hearts, st.Winner)
	assert.True(t, st.IsWin)
	assert.Equal(t, int64(20), st.Winnings)
	assert.Equal(t, StatusFinished, e.Status())
	assert.Equal(t, Hearts, e.Snapshot().Winner)
}

func TestFinishRace_Loss(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.PlaceBet(Hearts, 10))
	_, err := e.StartRace(100)
	require.NoError(t, err)

	st, err := e.FinishRace(Diamonds)
	require.NoError(t, err)
	assert.False(t, st.IsWin)
	assert.Equal(t, int64(0), st.Winnings)
	assert.Equal(t, []Outcome{{Winner: Diamonds, Won: false}}, e.History())
}

func TestFinishRace_FloorsWinnings(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.PlaceBet(Clubs, 10))
	require.NoError(t, e.PlaceBet(Spades, 5))
	e.SetOdds(map[Suit]float64{Clubs: 2.3, Spades: 3.7})
	_, err := e.StartRace(100)
	require.NoError(t, err)

	st, err := e.FinishRace(Clubs)
	require.NoError(t, err)
	assert.Equal(t, int64(23), st.Winnings)
	assert.Equal(t, 2.3, st.Odds)
}

func TestFinishRace_TwiceRejected(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.PlaceBet(Hearts, 5))
	_, err := e.StartRace(5)
	require.NoError(t, err)
	_, err = e.FinishRace(Hearts)
	require.NoError(t, err)

	_, err = e.FinishRace(Hearts)
	assert.ErrorIs(t, err, ErrNoRaceToFinish)
	assert.EqualError(t, err, "no race to finish")
	assert.Len(t, e.History(), 1)
}

func TestFinishRace_NotRacing(t *testing.T) {
	e := NewEngine()
	_, err := e.FinishRace(Hearts)
	assert.ErrorIs(t, err, ErrNoRaceToFinish)
	assert.Empty(t, e.History())
}

func TestResetToBetting(t *testing.T) {
	e := NewEngine()
	assert.ErrorIs(t, e.ResetToBetting(), ErrRaceNotFinished)

	require.NoError(t, e.PlaceBet(Spades, 20))
	_, err := e.StartRace(20)
	require.NoError(t, err)
	assert.ErrorIs(t, e.ResetToBetting(), ErrRaceNotFinished)

	_, _, err = e.DrawCard(Draw{Card: Card{Suit: Spades}, Progress: progressOf(Spades)})
	require.NoError(t, err)
	_, err = e.FinishRace(Spades)
	require.NoError(t, err)
	require.NoError(t, e.ResetToBetting())

	s := e.Snapshot()
	assert.Equal(t, StatusBetting, s.Status)
	assert.Equal(t, int64(0), s.TotalBet)
	assert.Empty(t, s.Winner)
	for _, suit := range Suits {
		assert.Equal(t, int64(0), s.Bets[suit])
		assert.Equal(t, 0.0, s.Progress[suit])
	}
	assert.Equal(t, []Outcome{{Winner: Spades, Won: true}}, s.History)
}

func TestHistory_KeepsLastTenAcrossRaces(t *testing.T) {
	e := NewEngine()
	var all []Outcome
	for i := 0; i < 11; i++ {
		require.NoError(t, e.PlaceBet(Hearts, 5))
		_, err := e.StartRace(1000)
		require.NoError(t, err)
		winner := Suits[i%len(Suits)]
		st, err := e.FinishRace(winner)
		require.NoError(t, err)
		all = append(all, Outcome{Winner: winner, Won: st.IsWin})
		require.NoError(t, e.ResetToBetting())
	}

	h := e.History()
	assert.Len(t, h, HistoryCapacity)
	assert.Equal(t, all[1:], h)
}

func TestSetOdds_FallsBackToDefault(t *testing.T) {
	e := NewEngine()
	e.SetOdds(map[Suit]float64{Hearts: 5.5, Clubs: -2})
	s := e.Snapshot()
	assert.Equal(t, 5.5, s.Odds[Hearts])
	assert.Equal(t, DefaultOdds, s.Odds[Clubs])
	assert.Equal(t, DefaultOdds, s.Odds[Diamonds])
}

func TestSnapshot_IsACopy(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.PlaceBet(Hearts, 10))
	s := e.Snapshot()
	s.Bets[Hearts] = 50
	s.Odds[Hearts] = 9
	assert.Equal(t, int64(10), e.Snapshot().Bets[Hearts])
	assert.Equal(t, DefaultOdds, e.Snapshot().Odds[Hearts])
}

func TestEndToEnd_DiamondsScenario(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.PlaceBet(Diamonds, 5))

	rs, err := e.StartRace(100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rs.BurnAmount)

	winner, done, err := e.DrawCard(Draw{Card: Card{Rank: "A", Suit: Diamonds}, Progress: progressOf(Diamonds)})
	require.NoError(t, err)
	require.True(t, done)

	st, err := e.FinishRace(winner)
	require.NoError(t, err)
	assert.True(t, st.IsWin)
	assert.Equal(t, int64(5*DefaultOdds), st.Winnings)

	require.NoError(t, e.ResetToBetting())
	s := e.Snapshot()
	assert.Equal(t, StatusBetting, s.Status)
	assert.Equal(t, int64(0), sumBets(s))
}

func TestRejection_Unwrap(t *testing.T) {
	err := reject("startRace", ErrNoBet, "")
	var r *Rejection
	require.True(t, errors.As(err, &r))
	assert.Equal(t, "startRace", r.Op)
	assert.False(t, IsRejection(errors.New("boom")))
}

func TestCanStart_DoesNotMutate(t *testing.T) {
	e := NewEngine()
	_, err := e.CanStart(100)
	assert.ErrorIs(t, err, ErrNoBet)

	require.NoError(t, e.PlaceBet(Hearts, 50))
	rs, err := e.CanStart(100)
	require.NoError(t, err)
	assert.Equal(t, int64(5), rs.BurnAmount)
	assert.Equal(t, StatusBetting, e.Status())
	require.NoError(t, e.PlaceBet(Hearts, 20), "bets stay open after a dry run")
}
