package internal

// Version is the code version recorded on run manifests so stored
// results can be traced to the analysis revision that produced them.
const Version = "1.0.0"
