package dbx

// TimeLayout is the fixed-width RFC 3339 layout timestamps are stored in.
// time.RFC3339Nano trims trailing fractional zeros, so its output does not
// sort lexicographically ("...00.5Z" > "...00.45Z" as TEXT); padding the
// fraction to nine digits keeps comparisons like `updated_at > ?` monotonic.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
