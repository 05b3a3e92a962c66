// Package subscription provides read access to tenant subscription rules
// and broker credentials.
//
// A TopicSubscription tells the core which MQTT topics a tenant listens
// on, which broker credential to connect with, and (optionally) how to
// interpret payload fields. Rules are written by the management plane;
// this package only reads them when a tenant session starts.
package subscription
