/*
Package cash is the bank of the host. It keeps one wallet per address and
moves coins between them. The balance of any coin may never go below zero.

Contract instances hold their funds in a wallet of the instance address,
so balance queries and payment dispatch both end up here.
*/
package cash
