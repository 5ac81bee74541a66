/*
Package match implements the in-memory similarity matching engine that
turns a face embedding into an accept/reject decision.

The engine holds the enrolled template set, loaded once at worker startup
and never mutated, so concurrent Match calls are lock-free. Each query is
compared against every template by cosine similarity; the maximum decides
against an inclusive threshold (default 0.7). Rejections still report the
best similarity observed, which makes near-miss analysis possible from
logs alone.

The engine does not normalize inputs: the encoder is responsible for
producing L2-normalized vectors. Dimension mismatches fail fast with a
validation error rather than producing a meaningless score.
*/
package match
