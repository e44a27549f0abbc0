package bracket

// Propagate writes the winner of the given match into its slot in the next
// stage: match i feeds match i/2, even i into team1 and odd i into team2.
// A changed slot restarts the receiving match: its scores, status and winner
// belonged to the previous occupant. Bye matches keep their sole-team winner.
// A changed winner cascades further.
// Out of range positions, the final and group stage matches are no-ops.
func (b Bracket) Propagate(stageIndex, matchIndex int) {
	m, ok := b.Match(stageIndex, matchIndex)
	if !ok || b[stageIndex].Kind == GroupStage {
		return
	}

	next := stageIndex + 1
	if next >= len(b) || b[next].Seeded {
		return
	}
	target, ok := b.Match(next, matchIndex/2)
	if !ok {
		return
	}

	side := feedSide(matchIndex)
	if target.Team(side).Is(m.Winner) {
		return
	}
	target.setTeam(side, m.Winner.clone())

	previous := target.Winner
	if target.Bye {
		target.recomputeWinner()
	} else {
		target.reset()
	}
	if !target.Winner.Is(previous) {
		b.Propagate(next, matchIndex/2)
	}
}

func feedSide(matchIndex int) Side {
	if matchIndex%2 == 0 {
		return Side1
	}
	return Side2
}

// ResolveByes completes every match that holds a single team and can never
// get an opponent, and advances that team. Returns how many were resolved.
func (b Bracket) ResolveByes() int {
	resolved := 0
	for s := range b {
		if b[s].Kind == GroupStage {
			continue
		}
		for i := range b[s].Matches {
			m := &b[s].Matches[i]
			if m.Bye || m.teamCount() != 1 {
				continue
			}

			empty := Side2
			if m.Team1 == nil {
				empty = Side1
			}
			if b.slotOpen(s, i, empty) {
				continue
			}

			m.Bye = true
			m.Winner = m.soleTeam()
			m.Status = MatchCompleted
			resolved++

			// Later stages are visited after this one, so a single pass is enough
			b.Propagate(s, i)
		}
	}
	return resolved
}

// slotOpen reports whether a team can still arrive in the given slot.
func (b Bracket) slotOpen(stageIndex, matchIndex int, side Side) bool {
	if stageIndex <= 0 || b[stageIndex].Seeded {
		return false
	}
	if b[stageIndex-1].Kind == GroupStage {
		// Waiting for the group stage to be seeded in
		return true
	}
	return b.matchLive(stageIndex-1, 2*matchIndex+int(side)-1)
}

// matchLive reports whether a match has, or can still get, a team to send on.
func (b Bracket) matchLive(stageIndex, matchIndex int) bool {
	m, ok := b.Match(stageIndex, matchIndex)
	if !ok {
		return false
	}
	if m.Team1 != nil || m.Team2 != nil {
		return true
	}
	return b.slotOpen(stageIndex, matchIndex, Side1) || b.slotOpen(stageIndex, matchIndex, Side2)
}

// ApplyScore sets a score and propagates the resulting winner as one step, so
// the next stage never lags behind the match it is fed by.
func (b Bracket) ApplyScore(stageIndex, matchIndex int, side Side, value float64) (*Match, error) {
	if side != Side1 && side != Side2 {
		return nil, ErrInvalidSide
	}
	m, ok := b.Match(stageIndex, matchIndex)
	if !ok {
		return nil, ErrMatchNotFound
	}

	m.SetScore(side, value)
	b.Propagate(stageIndex, matchIndex)
	return m, nil
}
