package collection

// ScrollThreshold is the fraction of the scrollable height past which the
// next page load is triggered.
const ScrollThreshold = 0.8
