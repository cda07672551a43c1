// package services holds the outbound HTTP surface: the AnisongDB catalog
// client, the media link reachability prober, and media URL construction.
package services
