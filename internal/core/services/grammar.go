package services

import (
	"strings"

	"github.com/manthysbr/openclaw/internal/core/domain"
)

const (
	deployKeyword = "!deploy"
	nftKeyword    = "!nft"

	DefaultNFTName   = "Base NFT"
	DefaultNFTSymbol = "BNFT"
)

// ParseCastCommand looks for a command keyword anywhere in the post. Keywords
// match case-insensitively; arguments keep their original case and are taken
// positionally, one whitespace-separated token each, so multi-word names are
// not supported. An argument that starts with "!" ends the argument list.
func ParseCastCommand(post domain.RemotePost) (domain.Command, bool) {
	tokens := strings.Fields(post.Text)
	for i, tok := range tokens {
		var kind domain.CommandKind
		switch strings.ToLower(tok) {
		case deployKeyword:
			kind = domain.KindDeploy
		case nftKeyword:
			kind = domain.KindDeployNFT
		default:
			continue
		}

		args := commandArgs(tokens[i+1:])
		params := domain.Params{}

		switch kind {
		case domain.KindDeploy:
			if len(args) > 0 {
				params[domain.ParamName] = args[0]
			}
			if len(args) > 1 {
				params[domain.ParamSymbol] = args[1]
			}
			if handle := strings.TrimPrefix(post.AuthorHandle, "@"); handle != "" {
				params[domain.ParamRequester] = handle
			}
		case domain.KindDeployNFT:
			params[domain.ParamName] = DefaultNFTName
			params[domain.ParamSymbol] = DefaultNFTSymbol
			if len(args) > 0 {
				params[domain.ParamName] = args[0]
			}
			if len(args) > 1 {
				params[domain.ParamSymbol] = args[1]
			}
		}

		return domain.Command{
			ID:     domain.CommandID(post.ID),
			Kind:   kind,
			Params: params,
			Source: domain.SourceRemoteFeed,
		}, true
	}
	return domain.Command{}, false
}

func commandArgs(rest []string) []string {
	var args []string
	for _, tok := range rest {
		if strings.HasPrefix(tok, "!") || len(args) == 2 {
			break
		}
		args = append(args, tok)
	}
	return args
}
