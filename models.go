package main

// OpenRequest is the decoded body of a POST to the listener.
type OpenRequest struct {
	URL string `json:"url"`
}

// ResMessage is the JSON body written for rejected requests.
type ResMessage struct {
	Message string `json:"message"`
}
