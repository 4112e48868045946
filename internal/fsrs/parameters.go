package fsrs

// DefaultWeights is the published FSRS-4.5 parameter set (py-fsrs defaults).
// Interval behavior for persisted card state depends on these staying fixed;
// do not retune them in place, introduce a new set instead.
var DefaultWeights = [19]float64{
	0.4072, 1.1829, 3.1262, 15.4722, // w[0..3]  initial stability S₀(G)
	7.2102, 0.5316, 1.0651, 0.0234, // w[4..7]  difficulty init and mean reversion
	1.616, 0.1544, 1.0824, 1.9813, // w[8..11] recall / forget stability
	0.0953, 0.2975, 2.2042, 0.2407, // w[12..15] forget stability, hard penalty
	2.9466, 0.5034, 0.6567, // w[16..18] easy bonus, short-term memory
}

const (
	// minStability is the floor applied after every stability update.
	minStability = 0.1

	// graduationStability is the stability (in days) above which a card in
	// learning or relearning graduates to the review cycle.
	graduationStability = 1.0

	// DefaultDesiredRetention is the target recall probability used to derive
	// review intervals when none is configured.
	DefaultDesiredRetention = 0.9

	// DefaultMaximumIntervalDays caps scheduled intervals at roughly 100 years.
	DefaultMaximumIntervalDays = 36500
)
