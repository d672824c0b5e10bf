/*
Package psys simulates a one-membrane P-system: a multiset of the symbols
a to e rewritten by rules in maximally parallel steps until no rule applies.

# Concept

A rule file holds whitespace-separated tokens. In each token lowercase
letters are consumed and uppercase letters produced, so "aaB" turns two a's
into one b. A line starting with '#' is a comment. The initial state is read
from any text: every a to e, in either case, counts once.

Each step applies the rules in file order. A rule fires as many times as the
current state allows; its products are held back until every rule has had
its turn, then merged into the state. A step in which nothing fires halts
the run.

Some rule sets never halt. With loop detection the run fails as soon as a
state contains an earlier one, because from there the same steps repeat
forever with at least as many symbols.

# Usage

	sim, err := psys.New(ctx, []string{"rules.txt"}, psys.WithLoopDetection(true))
	if err != nil {
		log.Fatal(err)
	}
	res, err := sim.RunReader(ctx, os.Stdin)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Final)

Rules can also come from memory (pkg/adapters/memory) and runs can be
recorded in a ports.RunStore (memory, file or Redis).
*/
package psys
