// Package ballotengine evaluates community consensus. Refund requests and
// membership polls share one ballot lifecycle: members cast approve or
// disapprove votes and the ballot closes itself the moment a configured
// threshold is reached, applying the accepted outcome in the same unit of
// work as the deciding vote.
package ballotengine
