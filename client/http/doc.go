/*
Package http fetches beacons from drand's public JSON HTTP API.

Only the latest beacon of the default chain is requested:

	c := http.New(log.DefaultLogger(), http.DefaultURL)
	beacon, err := c.Latest(ctx)
	if err != nil {
		fmt.Println(http.Message(err))
	}

Every call to Latest performs exactly one request. Failures are not retried
and results are not cached. Message reduces an error to what the upstream
reported: the "message" field of an error body when the server sent one,
the network error otherwise.
*/
package http
