/*
Package htlctest provides helpers for tests of the host and the escrow
contract. Assertions live in the assert subpackage.
*/
package htlctest
