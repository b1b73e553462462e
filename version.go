package upftrim

// Version is the tool version recorded in trimmed files and reported by the
// CLI.
const Version = "0.2.0"
