package dlmm

// UnclaimedFees holds the raw, not-yet-claimed LP fees of one position.
type UnclaimedFees struct {
	FeeXRaw uint64
	FeeYRaw uint64
}

// IsZero reports whether there is nothing to claim on either side.
func (f UnclaimedFees) IsZero() bool {
	return f.FeeXRaw == 0 && f.FeeYRaw == 0
}

// UnclaimedLpFee computes the claimable LP fee of a position from pool state
// and position state. The pending counters on the position account are
// unclaimed-only, so no claimed amount has to be subtracted here; the pool
// reserves only serve as an upper bound in case the position counters are
// ahead of the pool (stale read across two accounts).
func UnclaimedLpFee(pool *PairAccount, pos *PositionAccount) UnclaimedFees {
	if pos == nil {
		return UnclaimedFees{}
	}

	fees := UnclaimedFees{
		FeeXRaw: pos.FeeXPendingRaw,
		FeeYRaw: pos.FeeYPendingRaw,
	}

	if pool != nil {
		capAt := func(fee, reserve uint64) uint64 {
			if reserve > 0 && fee > reserve {
				return reserve
			}
			return fee
		}
		fees.FeeXRaw = capAt(fees.FeeXRaw, pool.ReserveXRaw)
		fees.FeeYRaw = capAt(fees.FeeYRaw, pool.ReserveYRaw)
	}
	return fees
}
