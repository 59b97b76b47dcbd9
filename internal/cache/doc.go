// Package cache stores synthesized PCM so the same text is not sent to the
// synthesizer twice. It has an in-memory LRU level and a persistent,
// zstd-compressed disk level.
package cache
