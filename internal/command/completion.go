// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/stashgo/internal/meta"
)

const bashCompletionScript = `# bash completion for stash
# Fallback if bash-completion is not installed
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_stash()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "put get ls rm clear purge path diff completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local store="--namespace -n --keys --dir --tldr"
    local list="--attrs -a --color -c --filter -f --local -l --output -o --sort -s --titles -t --schema"

    case "$cmd" in
        put)
            local opts="$store --async --codec --json"
            ;;
        get)
            local opts="$store --max-age -m --path -p"
            ;;
        ls)
            local opts="$store $list --max-age -m"
            ;;
        rm|path)
            local opts="$store"
            ;;
        clear)
            local opts="$store --force"
            ;;
        purge)
            local opts="$store --all --older-than"
            ;;
        diff)
            local opts="$store --max-age -m --color -c --format"
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$store"
            ;;
    esac

    case "$prev" in
        --output|-o)
            COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
            return 0
            ;;
        --keys)
            COMPREPLY=( $(compgen -W "escape md5 blake2b" -- "$cur") )
            return 0
            ;;
        --codec)
            COMPREPLY=( $(compgen -W "json yaml" -- "$cur") )
            return 0
            ;;
        --format)
            COMPREPLY=( $(compgen -W "ascii delta" -- "$cur") )
            return 0
            ;;
        --dir)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            return 0
            ;;
    esac

    if [[ "$cur" == -* ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    # The FILE argument of put.
    if [[ "$cmd" == "put" && ${COMP_CWORD} -ge 3 ]]; then
        COMPREPLY=( $(compgen -f -- "$cur") )
    fi
    return 0
}

complete -F _stash stash
`

const zshCompletionScript = `#compdef stash

_stash() {
  local -a cmds
  cmds=(
    'put:store a file or stdin under a key'
    'get:write a cached entry to stdout'
    'ls:list cached entries'
    'rm:remove cached entries'
    'clear:remove every entry in a namespace'
    'purge:remove stale entries'
    'path:print the file that holds a key'
    'diff:compare the JSON entries of two keys'
    'completion:generate shell completion script'
  )

  local -a store
  store=(
  '(-n --namespace)'{-n,--namespace}'[namespace]:namespace'
  '--keys[key mapping]:mapping:(escape md5 blake2b)'
  '--dir[cache directory]:directory:_directories'
  '--tldr[show tldr page]'
  )

  local -a list
  list=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include]:attrs'
  '(-c --color)'{-c,--color}'[enable colored text]'
  '(-f --filter)'{-f,--filter}'[filters to apply]:filters'
  '(-l --local)'{-l,--local}'[local timestamps]'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[sort attributes]:attrs'
  '(-t --titles)'{-t,--titles}'[show titles]'
  '--schema[dump schema]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'stash commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    put)
      _arguments -C $store \
        '--async[write in the background]' \
        '--codec[re-encode input]:codec:(json yaml)' \
        '--json[require valid JSON]' \
        '1:key' '2::file:_files'
      ;;
    get)
      _arguments -C $store \
        '(-m --max-age)'{-m,--max-age}'[maximum age]:duration' \
        '(-p --path)'{-p,--path}'[gjson path]:path' \
        '1:key'
      ;;
    ls)
      _arguments -C $store $list \
        '(-m --max-age)'{-m,--max-age}'[maximum age]:duration'
      ;;
    rm)
      _arguments -C $store '*:key'
      ;;
    path)
      _arguments -C $store '1:key'
      ;;
    clear)
      _arguments -C $store '--force[clear without a namespace]'
      ;;
    purge)
      _arguments -C $store \
        '--all[whole cache directory]' \
        '--older-than[minimum age]:duration'
      ;;
    diff)
      _arguments -C $store \
        '(-m --max-age)'{-m,--max-age}'[maximum age]:duration' \
        '(-c --color)'{-c,--color}'[color output]' \
        '--format[diff format]:format:(ascii delta)' \
        '1:key' '2:key'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $store
      ;;
  esac
}

# If this file is sourced directly (not autoloaded via fpath), ensure compsys is initialized and register the completion
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _stash stash
`

func CompletionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := cmd.Args().First()
	if shell == "" {
		// Try to detect from SHELL.
		sh := os.Getenv("SHELL")
		switch {
		case strings.HasSuffix(sh, "zsh"):
			shell = "zsh"
		case strings.HasSuffix(sh, "bash"):
			shell = "bash"
		}
	}

	w := writer(cmd)
	switch shell {
	case "bash":
		_, _ = io.WriteString(w, bashCompletionScript)
	case "zsh":
		_, _ = io.WriteString(w, zshCompletionScript)
	default:
		fmt.Fprintln(os.Stderr, "usage: stash completion [bash|zsh]")
	}
	return nil
}

func CompletionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "stash completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: CompletionCommandAction,
	}
}
